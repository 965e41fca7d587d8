package middleware

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"

	"github.com/labstack/echo/v4"
)

var (
	echoContextType = reflect.TypeOf((*echo.Context)(nil)).Elem()
	errorType       = reflect.TypeOf((*error)(nil)).Elem()
)

// WrapHandler turns a typed controller method into an echo handler. f must
// look like one of
//
//	func(echo.Context, Request) (Data, error)
//	func(echo.Context, Request) error
//
// where Request is a struct bound and validated with BindAndValidate. Data
// is rendered inside the Response envelope; a *Response is sent as is.
func WrapHandler(f any) echo.HandlerFunc {
	handler, err := wrapHandler(f)
	if err != nil {
		panic(err)
	}
	return handler
}

func wrapHandler(f any) (echo.HandlerFunc, error) {
	fVal := reflect.ValueOf(f)
	if fVal.Kind() != reflect.Func {
		return nil, fmt.Errorf("invalid function passed to wrap handler: %v", fVal)
	}
	fTyp := fVal.Type()
	if err := checkHandlerSignature(fTyp); err != nil {
		return nil, fmt.Errorf("[%s] %w", runtime.FuncForPC(fVal.Pointer()).Name(), err)
	}

	reqType := fTyp.In(1)
	withData := fTyp.NumOut() == 2

	return func(c echo.Context) error {
		req := reflect.New(reqType)
		if err := BindAndValidate(c, req.Interface()); err != nil {
			return err
		}

		out := fVal.Call([]reflect.Value{reflect.ValueOf(c), req.Elem()})
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return errVal.Interface().(error)
		}
		if c.Response().Committed {
			return nil
		}

		resp := &Response{Status: http.StatusOK, Success: true}
		if withData {
			data := out[0].Interface()
			if v, ok := data.(*Response); ok {
				resp = v
			} else {
				resp.Data = data
			}
		}
		return c.JSON(resp.Status, resp)
	}, nil
}

func checkHandlerSignature(fTyp reflect.Type) error {
	if n := fTyp.NumIn(); n != 2 {
		return fmt.Errorf("invalid function arguments length: %d", n)
	}
	if !fTyp.In(0).Implements(echoContextType) {
		return fmt.Errorf("first argument must has type echo.Context")
	}
	if k := fTyp.In(1).Kind(); k != reflect.Struct {
		return fmt.Errorf("second argument must has type struct: %v", k)
	}
	numOut := fTyp.NumOut()
	if numOut < 1 || numOut > 2 {
		return fmt.Errorf("invalid function returns length: %d", numOut)
	}
	if last := fTyp.Out(numOut - 1); !last.Implements(errorType) {
		return fmt.Errorf("last return argument must has type error: %v", last)
	}
	return nil
}
