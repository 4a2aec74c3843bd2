package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/jobxpress/creditgate/internal/domain"
)

// pathParam binds a required path parameter with the OpenAPI "simple" style.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
	if err != nil {
		return "", fmt.Errorf("%w: invalid path parameter %s: %v", domain.ErrInvalidPayload, name, err)
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidPayload, name)
	}
	return v, nil
}

// queryInt binds an optional integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return 0, fmt.Errorf("%w: invalid query parameter %s: %v", domain.ErrInvalidPayload, name, err)
	}
	if v == nil {
		return def, nil
	}
	return *v, nil
}
