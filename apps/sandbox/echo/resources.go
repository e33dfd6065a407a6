package echoapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
	"github.com/trezcool/masomo-console/storage/inmem"
)

type resourceApi struct {
	def        resource.Definition
	db         *inmemdb.DB
	validate   *validator.Validate
	translator ut.Translator
}

func registerResourceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	def resource.Definition,
	db *inmemdb.DB,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := resourceApi{
		def:        def,
		db:         db,
		validate:   validate,
		translator: translator,
	}
	ep := def.Endpoints

	g.GET(ep.ListPath, api.list, jwt)
	g.GET(ep.SearchPath, api.search, jwt)
	g.POST(ep.ItemPath, api.create, jwt)

	if ep.UpdateID == resource.IDInPath {
		g.PUT(ep.ItemPath+"/:id", api.update, jwt)
	} else {
		g.PUT(ep.ItemPath, api.update, jwt)
	}
	if ep.DeleteID == resource.IDInPath {
		g.DELETE(ep.ItemPath+"/:id", api.destroy, jwt)
	} else {
		g.DELETE(ep.ItemPath, api.destroy, jwt)
	}
}

// bind decodes the JSON body, keeping numbers as json.Number. An empty body is an empty entity.
func bind(ctx echo.Context) (resource.Entity, error) {
	data := make(resource.Entity)
	dec := json.NewDecoder(ctx.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil && err != io.EOF {
		return nil, core.NewValidationError(errors.New("malformed JSON body"))
	}
	return data, nil
}

// id reads the identifier from the path or, for body-style routes, from the decoded body.
func (api *resourceApi) id(ctx echo.Context, loc resource.IDLocation, body resource.Entity) (string, error) {
	if loc == resource.IDInPath {
		id, err := url.PathUnescape(ctx.Param("id"))
		if err != nil {
			return "", echo.NewHTTPError(http.StatusBadRequest, "malformed id")
		}
		return id, nil
	}
	id, ok := body.ID(api.def.IDField)
	if !ok {
		return "", api.required(api.def.IDField)
	}
	return id, nil
}

func (api *resourceApi) required(fields ...string) error {
	flds := make([]core.FieldError, 0, len(fields))
	for _, f := range fields {
		flds = append(flds, core.FieldError{Field: f, Error: api.translate("required", f)})
	}
	return core.NewValidationError(nil, flds...)
}

func (api *resourceApi) translate(tag, field string) string {
	msg, err := api.translator.T(tag, field)
	if err != nil {
		return tag
	}
	return msg
}

// checkRequired runs the "required" rule on every required field of the resource.
func (api *resourceApi) checkRequired(data resource.Entity) error {
	var missing []string
	for _, f := range api.def.Required {
		v, ok := data[f]
		if !ok || v == nil {
			missing = append(missing, f)
			continue
		}
		if err := api.validate.Var(v, "required"); err != nil {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return api.required(missing...)
	}
	return nil
}

func (api *resourceApi) notFound() error {
	return echo.NewHTTPError(http.StatusNotFound, api.def.Name+" not found")
}

// Handlers

func (api *resourceApi) list(ctx echo.Context) error {
	rows, err := api.db.All(api.def)
	if err != nil {
		return errors.Wrap(err, "querying "+api.def.Name)
	}
	return ctx.JSON(http.StatusOK, envelope{
		"success":             true,
		"message":             "",
		api.def.CollectionKey: rows,
	})
}

func (api *resourceApi) search(ctx echo.Context) error {
	params := make(map[string]string)
	for k, vals := range ctx.QueryParams() {
		if len(vals) > 0 {
			params[k] = vals[0]
		}
	}
	rows, err := api.db.Search(api.def, params)
	if err != nil {
		return errors.Wrap(err, "searching "+api.def.Name)
	}
	return ctx.JSON(http.StatusOK, envelope{"success": true, "data": rows})
}

func (api *resourceApi) create(ctx echo.Context) error {
	data, err := bind(ctx)
	if err != nil {
		return err
	}
	if err := api.checkRequired(data); err != nil {
		return err
	}

	row, err := api.db.Insert(api.def, data)
	if err != nil {
		return errors.Wrap(err, "creating "+api.def.Name)
	}
	return ctx.JSON(http.StatusCreated, envelope{
		"success": true,
		"message": api.def.Name + " created",
		"data":    row,
	})
}

func (api *resourceApi) update(ctx echo.Context) error {
	data, err := bind(ctx)
	if err != nil {
		return err
	}
	id, err := api.id(ctx, api.def.Endpoints.UpdateID, data)
	if err != nil {
		return err
	}

	if _, err := api.db.Update(api.def, id, data); err != nil {
		if errors.Cause(err) == inmemdb.ErrNotFound {
			return api.notFound()
		}
		return errors.Wrap(err, "updating "+api.def.Name)
	}
	return ctx.JSON(http.StatusOK, envelope{"success": true, "message": api.def.Name + " updated"})
}

func (api *resourceApi) destroy(ctx echo.Context) error {
	var data resource.Entity
	if api.def.Endpoints.DeleteID == resource.IDInBody {
		var err error
		if data, err = bind(ctx); err != nil {
			return err
		}
	}
	id, err := api.id(ctx, api.def.Endpoints.DeleteID, data)
	if err != nil {
		return err
	}

	if err := api.db.Delete(api.def, id); err != nil {
		if errors.Cause(err) == inmemdb.ErrNotFound {
			return api.notFound()
		}
		return errors.Wrap(err, "deleting "+api.def.Name)
	}
	return ctx.JSON(http.StatusOK, envelope{"success": true, "message": api.def.Name + " deleted"})
}
