// Package params binds the nested, resource-keyed payloads the forum's
// clients submit ({"post": {...}} JSON bodies or post[title]=... form
// fields) into per-action structs. Only fields declared on the struct can
// land; everything else is dropped by construction.
package params

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
)

var (
	// ErrMissingKey means the required top-level resource key was absent
	// from the submission. Handlers reject with 400 before touching the
	// database.
	ErrMissingKey = errors.New("missing required parameter key")

	// ErrInvalidPayload means the submission was present but unreadable
	// (bad JSON, or a value that cannot coerce into its field).
	ErrInvalidPayload = errors.New("invalid request payload")
)

// Bind extracts the nested payload under key and fills dest. dest is a
// struct whose `params` tags enumerate the permitted fields.
func Bind(c *gin.Context, key string, dest interface{}) error {
	values, err := extract(c, key)
	if err != nil {
		return err
	}

	return decode(values, dest)
}

func extract(c *gin.Context, key string) (map[string]interface{}, error) {
	if c.ContentType() == gin.MIMEJSON {
		return extractJSON(c, key)
	}
	return extractForm(c, key)
}

func extractJSON(c *gin.Context, key string) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	raw, ok := body[key]
	if !ok {
		return nil, ErrMissingKey
	}

	nested, ok := raw.(map[string]interface{})
	if !ok {
		return nil, ErrMissingKey
	}

	return nested, nil
}

// extractForm collects bracketed key[field] form fields.
func extractForm(c *gin.Context, key string) (map[string]interface{}, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	prefix := key + "["
	values := map[string]interface{}{}
	for name, vals := range c.Request.PostForm {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, "]") || len(vals) == 0 {
			continue
		}

		field := name[len(prefix) : len(name)-1]
		if field == "" {
			continue
		}

		values[field] = vals[len(vals)-1]
	}

	if len(values) == 0 {
		return nil, ErrMissingKey
	}

	return values, nil
}

func decode(values map[string]interface{}, dest interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dest,
		TagName:          "params",
		WeaklyTypedInput: true,
		DecodeHook:       stringToUUIDHook,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return nil
}

var uuidType = reflect.TypeOf(uuid.UUID{})

func stringToUUIDHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != uuidType || from.Kind() != reflect.String {
		return data, nil
	}

	value := strings.TrimSpace(data.(string))
	if value == "" {
		return uuid.Nil, nil
	}

	return uuid.Parse(value)
}
