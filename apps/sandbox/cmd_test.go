package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/apps/sandbox/echo"
	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
	"github.com/trezcool/masomo-console/tests"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	var out bytes.Buffer
	validate, translator := core.NewValidator()
	return &commandLine{
		conf:       testutil.NewConfig(t),
		logger:     new(testutil.Logger),
		out:        &out,
		validate:   validate,
		translator: translator,
	}, &out
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", args: []string{}, wantErr: errHelp},
		{name: "unknown command", args: []string{"migrate"}, wantErr: errHelp},
		{name: "token: no operator", args: []string{"token"}, wantErr: errHelp},
		{name: "token: blank operator", args: []string{"token", "-operator", "  "}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"sandbox"}, tt.args...))
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func Test_commandLine_token(t *testing.T) {
	cli, out := setup(t)

	require.NoError(t, cli.run([]string{"sandbox", "token", "-operator", " Amina ", "-email", "amina@masomo.test"}))
	tokenStr := strings.TrimSpace(out.String())

	claims := new(echoapi.Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cli.conf.Sandbox.SecretKey), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, core.Operator{ID: "amina", Username: "amina", Email: "amina@masomo.test"}, claims.Operator())

	// the minted token opens the gateway
	server, _, err := cli.newServer(":0", 0)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_seed(t *testing.T) {
	cli, _ := setup(t)
	_, db, err := cli.newServer(":0", 3)
	require.NoError(t, err)

	for _, def := range resource.Platform().All() {
		rows, err := db.All(def)
		require.NoError(t, err)
		assert.Len(t, rows, 3, def.Name)

		for _, f := range def.Required {
			assert.Contains(t, rows[0], f, def.Name)
		}
		assert.NotContains(t, rows[0], "password")
		assert.True(t, rows[0].Time("createdAt").Before(rows[2].Time("createdAt")), def.Name)
	}

	users, err := db.All(resource.Users)
	require.NoError(t, err)
	id, _ := users[0].ID("user_id")
	assert.NoError(t, db.CheckPassword(resource.Users, id, demoPassword))
}

func Test_commandLine_serve_stops(t *testing.T) {
	cli, _ := setup(t)
	server, _, err := cli.newServer("127.0.0.1:0", 0)
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() { errs <- server.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Sandbox.ShutdownTimeout)
	defer cancel()
	require.Eventually(t, func() bool { return server.Stop(ctx) == nil }, cli.conf.Sandbox.ShutdownTimeout, 10*time.Millisecond)
	assert.NoError(t, <-errs)
}
