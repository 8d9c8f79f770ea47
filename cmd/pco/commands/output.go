package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/pco-client/internal/constants"
	"github.com/fivetwenty-io/pco-client/pkg/pco"
)

func encodeJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func encodeYAML(out io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(out)
	defer func() { _ = encoder.Close() }()

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}

// encodeTOML writes value as TOML. A list becomes the array of tables
// "records".
func encodeTOML(out io.Writer, value interface{}) error {
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Slice {
		value = map[string]interface{}{"records": value}
	}

	err := toml.NewEncoder(out).Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}

	return nil
}

// columnTitle turns an attribute name such as "first_name" into "First Name".
func columnTitle(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// kindName derives a kind name from the last segment of a collection path,
// e.g. "people/v2/phone_numbers" gives "PhoneNumbers".
func kindName(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")

	return strings.ReplaceAll(columnTitle(segments[len(segments)-1]), " ", "")
}

// RenderObjects writes objects in the given format. Tables show the id
// followed by every scalar attribute present on any object.
func RenderObjects(out io.Writer, objects []*pco.Object, format string) error {
	switch format {
	case constants.FormatJSON:
		return encodeJSON(out, objectMaps(objects))
	case constants.FormatYAML:
		return encodeYAML(out, objectMaps(objects))
	case constants.FormatTOML:
		return encodeTOML(out, objectMaps(objects))
	}

	if len(objects) == 0 {
		_, _ = fmt.Fprintln(out, "No records found")

		return nil
	}

	columns := tableColumns(objects)
	headers := make([]any, 0, len(columns))

	for _, column := range columns {
		headers = append(headers, columnTitle(column))
	}

	table := tablewriter.NewWriter(out)
	table.Header(headers...)

	for _, obj := range objects {
		row := make([]string, 0, len(columns))
		for _, column := range columns {
			row = append(row, truncate(obj.String(column)))
		}

		_ = table.Append(row)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// RenderObject writes a single object. A nil object prints as null or as
// "No records found".
func RenderObject(out io.Writer, obj *pco.Object, format string) error {
	switch format {
	case constants.FormatJSON:
		return encodeJSON(out, objectMap(obj))
	case constants.FormatYAML:
		return encodeYAML(out, objectMap(obj))
	case constants.FormatTOML:
		return encodeTOML(out, objectMap(obj))
	}

	if obj == nil {
		_, _ = fmt.Fprintln(out, "No records found")

		return nil
	}

	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	attrs := obj.Attributes()
	names := make([]string, 0, len(attrs))

	for name := range attrs {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		_ = table.Append([]string{columnTitle(name), truncate(obj.String(name))})
	}

	for _, field := range obj.Fields() {
		_ = table.Append([]string{columnTitle(field), describeRelated(obj, field)})
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// RenderCount writes a record count.
func RenderCount(out io.Writer, path string, count int, format string) error {
	result := map[string]interface{}{"path": path, "count": count}

	switch format {
	case constants.FormatJSON:
		return encodeJSON(out, result)
	case constants.FormatYAML:
		return encodeYAML(out, result)
	case constants.FormatTOML:
		return encodeTOML(out, result)
	default:
		table := tablewriter.NewWriter(out)
		table.Header("Path", "Count")
		_ = table.Append([]string{path, strconv.Itoa(count)})

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func describeRelated(obj *pco.Object, field string) string {
	if many, ok := obj.Many(field); ok {
		return fmt.Sprintf("%d related", len(many))
	}

	one, _ := obj.One(field)
	if one == nil {
		return constants.NotAvailable
	}

	return fmt.Sprintf("%s %d", one.Kind().Name(), one.ID())
}

func objectMap(obj *pco.Object) map[string]interface{} {
	if obj == nil {
		return nil
	}

	return obj.ToMap()
}

func objectMaps(objects []*pco.Object) []map[string]interface{} {
	maps := make([]map[string]interface{}, 0, len(objects))
	for _, obj := range objects {
		maps = append(maps, obj.ToMap())
	}

	return maps
}

func tableColumns(objects []*pco.Object) []string {
	seen := map[string]bool{}

	for _, obj := range objects {
		for name, value := range obj.Attributes() {
			if name == "id" || !isScalar(value) {
				continue
			}

			seen[name] = true
		}
	}

	columns := make([]string, 0, len(seen)+1)
	for name := range seen {
		columns = append(columns, name)
	}

	sort.Strings(columns)

	return append([]string{"id"}, columns...)
}

func isScalar(value interface{}) bool {
	switch value.(type) {
	case map[string]interface{}, []interface{}:
		return false
	default:
		return true
	}
}

func truncate(value string) string {
	if len(value) <= constants.StringTruncationLength {
		return value
	}

	return value[:constants.StringTruncationLength-3] + "..."
}
