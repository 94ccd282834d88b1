package usergraph

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UserInput is the body sent when creating or patching a user. Optional
// arguments the client left out are omitted from the body; an explicit null
// is sent as null so a patch can clear the field.
type UserInput struct {
	FirstName string  `json:"firstName"`
	Age       *int    `json:"age" validate:"omitempty,gte=0"`
	CompanyID *string `json:"companyId"`

	given map[string]bool
}

func (in *UserInput) MarshalJSON() ([]byte, error) {
	body := map[string]any{"firstName": in.FirstName}
	if in.given["age"] {
		body["age"] = in.Age
	}
	if in.given["companyId"] {
		body["companyId"] = in.CompanyID
	}
	return json.Marshal(body)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ArgumentError reports mutation arguments that the data service must not see.
type ArgumentError struct {
	Fields []string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", strings.Join(e.Fields, ", "), e.Reason)
}

func (e *ArgumentError) Extensions() map[string]any {
	return map[string]any{"code": "BAD_USER_INPUT"}
}

func userInputFromArgs(args map[string]any) (*UserInput, error) {
	in := &UserInput{given: map[string]bool{}}
	in.FirstName, _ = args["firstName"].(string)
	if v, ok := args["age"]; ok {
		in.given["age"] = true
		if n, ok := v.(int); ok {
			in.Age = &n
		}
	}
	if v, ok := args["companyId"]; ok {
		in.given["companyId"] = true
		if id, ok := v.(string); ok {
			in.CompanyID = &id
		}
	}
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		ae := &ArgumentError{}
		var reasons []string
		for _, fe := range verrs {
			ae.Fields = append(ae.Fields, fe.Field())
			reasons = append(reasons, describe(fe))
		}
		ae.Reason = strings.Join(reasons, "; ")
		return nil, ae
	}
	return in, nil
}

func describe(fe validator.FieldError) string {
	if fe.Tag() == "gte" {
		return "must be at least " + fe.Param()
	}
	return "failed " + fe.Tag()
}
