package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core/resource"
	"github.com/trezcool/masomo-console/storage/inmem"
)

const demoPassword = "masomo-demo"

var demoCategories = []string{"Mathematics", "Physics", "Biology", "Literature", "History"}

// seed fills every table with n demo rows, spaced one minute apart.
func seed(db *inmemdb.DB, reg *resource.Registry, n int) error {
	if n <= 0 {
		return nil
	}
	origNow := inmemdb.NowFunc
	defer func() { inmemdb.NowFunc = origNow }()
	start := origNow().Add(-time.Duration(n) * time.Minute)

	for _, def := range reg.All() {
		for i := 1; i <= n; i++ {
			at := start.Add(time.Duration(i) * time.Minute)
			inmemdb.NowFunc = func() time.Time { return at }
			if _, err := db.Insert(def, demoRow(def, i)); err != nil {
				return errors.Wrapf(err, "seeding %s", def.Name)
			}
		}
	}
	return nil
}

func demoRow(def resource.Definition, i int) resource.Entity {
	row := make(resource.Entity)
	for _, fields := range [][]string{def.Required, def.SearchFields} {
		for _, f := range fields {
			if f == def.IDField {
				continue
			}
			row[f] = demoValue(def, f, i)
		}
	}
	for j, flag := range def.Toggles {
		row[flag] = (i+j)%2 == 0
	}
	if def.Name == resource.Users.Name {
		row["password"] = demoPassword
	}
	return row
}

func demoValue(def resource.Definition, field string, i int) interface{} {
	switch {
	case field == "email":
		return fmt.Sprintf("%s%d@masomo.test", def.Name, i)
	case field == "phone":
		return fmt.Sprintf("+25570000%04d", i)
	case field == "category":
		return demoCategories[i%len(demoCategories)]
	case field == "amount", field == "discount":
		return json.Number(strconv.Itoa(5 * i))
	case field == "start_time":
		return time.Now().UTC().Add(time.Duration(i) * 24 * time.Hour).Format(time.RFC3339)
	case field == "code":
		return fmt.Sprintf("MASOMO%02d", i)
	case field == "status":
		return []string{"pending", "active", "completed"}[i%3]
	case strings.HasSuffix(field, "_id"):
		return strconv.Itoa(i)
	default:
		label := strings.ReplaceAll(field, "_", " ")
		return fmt.Sprintf("%s%s %d", strings.ToUpper(label[:1]), label[1:], i)
	}
}
