package handler

import (
	"net/http"
	"reflect"

	"github.com/Yeferson-gm/test-crazy-b/internal/apierror"
	"github.com/Yeferson-gm/test-crazy-b/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondErr maps a service error to the HTTP status its kind implies.
// Unclassified errors become opaque 500s so internals never leak.
func respondErr(c *gin.Context, err error) {
	if kind, ok := apperr.KindOf(err); ok {
		switch kind {
		case apperr.KindNotFound:
			c.JSON(http.StatusNotFound, apierror.New(err.Error()))
		case apperr.KindConflict:
			c.JSON(http.StatusConflict, apierror.New(err.Error()))
		case apperr.KindInvalid:
			c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
		case apperr.KindUpstream:
			c.JSON(http.StatusBadGateway, apierror.New(err.Error()))
		}
		return
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
}
