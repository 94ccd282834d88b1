package usergraph

import (
	"bytes"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ID identifies a stored record. The data service may emit identifiers as
// JSON numbers or strings; both decode to the decimal string.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("id must be a string or number, got %s", data)
	}
	*id = ID(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// User is a person record. CompanyID is empty when the user belongs to no
// company.
type User struct {
	ID        ID     `json:"id"`
	FirstName string `json:"firstName"`
	Age       *int   `json:"age,omitempty"`
	CompanyID ID     `json:"companyId,omitempty"`
}

type Company struct {
	ID          ID     `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
