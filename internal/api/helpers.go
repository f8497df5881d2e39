package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/siyutao/adversarial-nli/internal/decode"
)

func writeBadRequest(c *echo.Context, msg, param string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, param)
}

func writeError(c *echo.Context, status int, errType, msg, param string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Param:   param,
		},
	})
}

// writeFailure maps a decode-layer error onto the error envelope. Invalid
// parameters become 400 with the parameter named, everything else is a 500
// from the model.
func writeFailure(c *echo.Context, err error) error {
	var ip *decode.InvalidParameterError
	if errors.As(err, &ip) {
		return writeBadRequest(c, err.Error(), ip.Param)
	}
	return writeError(c, http.StatusInternalServerError, "model_error", err.Error(), "")
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func newRequestID() string {
	return "req_" + uuid.NewString()
}
