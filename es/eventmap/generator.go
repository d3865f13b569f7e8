package eventmap

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// EventInfo represents a discovered domain event struct.
type EventInfo struct {
	Name        string
	PackageName string
	ImportPath  string
	Fields      []FieldInfo
	Version     int
}

// FieldInfo represents a struct field.
type FieldInfo struct {
	Name     string
	Type     string
	JSONTag  string
	Optional bool
}

// Config configures the code generation.
type Config struct {
	InputDir    string // Directory containing domain events
	OutputDir   string // Directory where generated code will be written
	OutputFile  string // Name of the generated file (default: event_mapping.gen.go)
	PackageName string // Package name for generated code
	ModulePath  string // Go module path for generating import paths
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		OutputFile:  "event_mapping.gen.go",
		PackageName: "generated",
	}
}

// Generator generates event mapping code.
type Generator struct {
	config Config
	events []EventInfo
}

// NewGenerator creates a new generator with the given configuration.
func NewGenerator(config *Config) *Generator {
	return &Generator{
		config: *config,
		events: make([]EventInfo, 0),
	}
}

// Discover walks the input directory and discovers all domain event structs.
func (g *Generator) Discover() error {
	return filepath.WalkDir(g.config.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip non-Go files
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		// Determine version from directory structure
		version := g.extractVersion(path)

		// Parse the Go file
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		// Extract package name and import path
		packageName := file.Name.Name
		importPath := g.buildImportPath(path)

		// Find all exported struct declarations
		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}

			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok || !typeSpec.Name.IsExported() {
					continue
				}

				structType, ok := typeSpec.Type.(*ast.StructType)
				if !ok {
					continue
				}

				// Extract fields
				fields := g.extractFields(structType)

				event := EventInfo{
					Name:        typeSpec.Name.Name,
					PackageName: packageName,
					ImportPath:  importPath,
					Version:     version,
					Fields:      fields,
				}

				g.events = append(g.events, event)
			}
		}

		return nil
	})
}

// extractVersion extracts the version number from the directory path.
// Returns 1 if no version directory is found or if parsing fails.
func (g *Generator) extractVersion(path string) int {
	versionRegex := regexp.MustCompile(`/v(\d+)/`)
	matches := versionRegex.FindStringSubmatch(path)
	if len(matches) > 1 {
		var version int
		_, err := fmt.Sscanf(matches[1], "%d", &version)
		if err != nil || version < 1 {
			return 1 // Default version on parse error
		}
		return version
	}
	return 1 // Default version
}

// buildImportPath builds the import path for a given file path.
func (g *Generator) buildImportPath(filePath string) string {
	relPath, err := filepath.Rel(g.config.InputDir, filepath.Dir(filePath))
	if err != nil {
		relPath = filepath.Dir(filePath)
	}

	if g.config.ModulePath != "" {
		return filepath.Join(g.config.ModulePath, relPath)
	}

	// Try to determine from input directory
	absInput, err := filepath.Abs(g.config.InputDir)
	if err != nil {
		return filepath.ToSlash(relPath)
	}
	absFile, err := filepath.Abs(filePath)
	if err != nil {
		return filepath.ToSlash(relPath)
	}
	relPath, err = filepath.Rel(absInput, filepath.Dir(absFile))
	if err != nil {
		return filepath.ToSlash(relPath)
	}

	return filepath.ToSlash(relPath)
}

// extractFields extracts field information from a struct type.
func (g *Generator) extractFields(structType *ast.StructType) []FieldInfo {
	fields := make([]FieldInfo, 0)

	for _, field := range structType.Fields.List {
		if len(field.Names) == 0 {
			continue // Skip embedded fields
		}

		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}

			fieldInfo := FieldInfo{
				Name: name.Name,
				Type: g.typeToString(field.Type),
			}

			// Extract JSON tag if present
			if field.Tag != nil {
				tag := field.Tag.Value
				tag = strings.Trim(tag, "`")
				if strings.Contains(tag, "json:") {
					jsonTagRegex := regexp.MustCompile(`json:"([^"]+)"`)
					matches := jsonTagRegex.FindStringSubmatch(tag)
					if len(matches) > 1 {
						fieldInfo.JSONTag = strings.Split(matches[1], ",")[0]
						fieldInfo.Optional = strings.Contains(matches[1], "omitempty")
					}
				}
			}

			fields = append(fields, fieldInfo)
		}
	}

	return fields
}

// typeToString converts an AST type to a string representation.
func (g *Generator) typeToString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + g.typeToString(t.X)
	case *ast.ArrayType:
		return "[]" + g.typeToString(t.Elt)
	case *ast.MapType:
		return "map[" + g.typeToString(t.Key) + "]" + g.typeToString(t.Value)
	case *ast.SelectorExpr:
		return g.typeToString(t.X) + "." + t.Sel.Name
	default:
		return "interface{}"
	}
}

// Generate generates the mapping code and writes it to the output file.
func (g *Generator) Generate() error {
	if len(g.events) == 0 {
		return fmt.Errorf("no events discovered in %s", g.config.InputDir)
	}

	// Sort events by name and version for deterministic output
	sort.Slice(g.events, func(i, j int) bool {
		if g.events[i].Name != g.events[j].Name {
			return g.events[i].Name < g.events[j].Name
		}
		return g.events[i].Version < g.events[j].Version
	})

	// Ensure output directory exists
	if err := os.MkdirAll(g.config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Generate code
	code := g.generateCode()

	// Write to file
	outputPath := filepath.Join(g.config.OutputDir, g.config.OutputFile)
	if err := os.WriteFile(outputPath, []byte(code), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	// Generate test file
	testCode := g.generateTestCode()
	testOutputPath := filepath.Join(g.config.OutputDir, g.getTestFileName())
	if err := os.WriteFile(testOutputPath, []byte(testCode), 0o600); err != nil {
		return fmt.Errorf("failed to write test file: %w", err)
	}

	return nil
}

// generateCode generates the complete mapping code.
func (g *Generator) generateCode() string {
	var sb strings.Builder

	// File header
	sb.WriteString(g.generateHeader())
	sb.WriteString("\n\n")

	// Imports
	sb.WriteString(g.generateImports())
	sb.WriteString("\n\n")

	// Option type for metadata injection
	sb.WriteString(g.generateOptionsType())
	sb.WriteString("\n\n")

	// EventTypeOf function
	sb.WriteString(g.generateEventTypeOf())
	sb.WriteString("\n\n")

	// ToMessages function
	sb.WriteString(g.generateToMessages())
	sb.WriteString("\n\n")

	// FromMessages function
	sb.WriteString(g.generateFromMessages())
	sb.WriteString("\n\n")

	// Type-safe helpers
	sb.WriteString(g.generateTypeHelpers())

	return sb.String()
}

// generateHeader generates the file header.
func (g *Generator) generateHeader() string {
	return fmt.Sprintf(`// Code generated by eventmap-gen. DO NOT EDIT.

package %s`, g.config.PackageName)
}

// generateImports generates the import statements.
func (g *Generator) generateImports() string {
	var sb strings.Builder

	sb.WriteString("import (\n")
	sb.WriteString("\t\"encoding/json\"\n")
	sb.WriteString("\t\"fmt\"\n")
	sb.WriteString("\n")
	sb.WriteString("\t\"github.com/getpup/streamstore/es\"\n")

	// Add imports for domain event packages
	importPaths := make(map[string]string)
	for _, event := range g.events {
		if event.ImportPath != "" {
			// Use package name as alias
			importPaths[event.ImportPath] = event.PackageName
		}
	}

	if len(importPaths) > 0 {
		sb.WriteString("\n")
		// Sort import paths for deterministic output
		paths := make([]string, 0, len(importPaths))
		for path := range importPaths {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			alias := importPaths[path]
			sb.WriteString(fmt.Sprintf("\t%s %q\n", alias, path))
		}
	}

	sb.WriteString(")")

	return sb.String()
}

// generateOptionsType generates the Option type for metadata injection.
func (g *Generator) generateOptionsType() string {
	return `// Option is a functional option for configuring event metadata.
type Option func(*eventOptions)

type eventOptions struct {
	metadata      map[string]any
	aggregateType string
	aggregateID   string
	firstVersion  int64
	withAggregate bool
}

// WithCausationID records the message that caused these events.
func WithCausationID(id string) Option {
	return func(o *eventOptions) {
		o.metadata["_causation_id"] = id
	}
}

// WithCorrelationID ties the events to one business transaction.
func WithCorrelationID(id string) Option {
	return func(o *eventOptions) {
		o.metadata["_correlation_id"] = id
	}
}

// WithTraceID records the distributed trace the events were produced in.
func WithTraceID(id string) Option {
	return func(o *eventOptions) {
		o.metadata["_trace_id"] = id
	}
}

// WithMetadata merges custom metadata into every converted event.
func WithMetadata(metadata map[string]any) Option {
	return func(o *eventOptions) {
		for key, value := range metadata {
			o.metadata[key] = value
		}
	}
}

// WithAggregate marks the events as belonging to an aggregate. Versions are
// assigned consecutively starting at firstVersion, matching what the
// aggregate persistence strategies expect.
func WithAggregate(aggregateType, aggregateID string, firstVersion int64) Option {
	return func(o *eventOptions) {
		o.aggregateType = aggregateType
		o.aggregateID = aggregateID
		o.firstVersion = firstVersion
		o.withAggregate = true
	}
}`
}

// generateEventTypeOf generates the EventTypeOf function.
func (g *Generator) generateEventTypeOf() string {
	var sb strings.Builder

	sb.WriteString(`// EventTypeOf returns the message name for a given domain event.
// The name is the struct name without version information.
func EventTypeOf(e any) (string, error) {
	switch e.(type) {
`)

	// Generate switch cases
	for _, event := range g.events {
		sb.WriteString(fmt.Sprintf("\tcase %s.%s, *%s.%s:\n",
			event.PackageName, event.Name, event.PackageName, event.Name))
		sb.WriteString(fmt.Sprintf("\t\treturn %q, nil\n", event.Name))
	}

	sb.WriteString(`	default:
		return "", fmt.Errorf("unknown event type: %T", e)
	}
}`)

	return sb.String()
}

// generateToMessages generates the ToMessages function.
func (g *Generator) generateToMessages() string {
	var sb strings.Builder

	sb.WriteString(`// ToMessages converts domain events into event store messages. Payloads go
// through a JSON round trip, so the mapping honors the structs' json tags.
// The generic type T allows for type-safe event slices instead of []any.
func ToMessages[T any](events []T, opts ...Option) ([]es.Message, error) {
	options := &eventOptions{metadata: map[string]any{}}
	for _, opt := range opts {
		opt(options)
	}

	result := make([]es.Message, 0, len(events))

	for i, e := range events {
		eventName, err := EventTypeOf(e)
		if err != nil {
			return nil, err
		}

		payload, err := payloadOf(e)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event %s: %w", eventName, err)
		}

		metadata := make(map[string]any, len(options.metadata)+4)
		for key, value := range options.metadata {
			metadata[key] = value
		}
		metadata["_event_version"] = getEventVersion(e)
		if options.withAggregate {
			metadata["_aggregate_type"] = options.aggregateType
			metadata["_aggregate_id"] = options.aggregateID
			metadata["_aggregate_version"] = options.firstVersion + int64(i)
		}

		result = append(result, es.NewGenericEvent(eventName, payload, metadata))
	}

	return result, nil
}

// payloadOf marshals a domain event and decodes it back into the generic
// document form the event store persists.
func payloadOf(e any) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return es.DecodeJSON(raw)
}

// getEventVersion returns the schema version for a given domain event.
func getEventVersion(e any) int {
	switch e.(type) {
`)

	// Generate version lookup cases
	for _, event := range g.events {
		sb.WriteString(fmt.Sprintf("\tcase %s.%s, *%s.%s:\n",
			event.PackageName, event.Name, event.PackageName, event.Name))
		sb.WriteString(fmt.Sprintf("\t\treturn %d\n", event.Version))
	}

	sb.WriteString(`	default:
		return 1
	}
}`)

	return sb.String()
}

// generateFromMessages generates the FromMessages and FromMessage functions.
func (g *Generator) generateFromMessages() string {
	var sb strings.Builder

	sb.WriteString(`// FromMessages converts store messages back into domain events.
// The function uses generics to return a strongly-typed slice.
// T must be 'any' or a common interface implemented by all domain events.
func FromMessages[T any](events []es.Message) ([]T, error) {
	result := make([]T, 0, len(events))

	for i, event := range events {
		domainEvent, err := FromMessage(event)
		if err != nil {
			return nil, fmt.Errorf("failed to convert event at index %d: %w", i, err)
		}

		typedEvent, ok := domainEvent.(T)
		if !ok {
			return nil, fmt.Errorf("event at index %d is not of expected type: got %T", i, domainEvent)
		}

		result = append(result, typedEvent)
	}

	return result, nil
}

// FromMessage converts a single store message to a domain event, picking the
// struct generation recorded in the _event_version metadata field.
// This is useful for projection handlers that convert individual events.
func FromMessage(event es.Message) (any, error) {
	switch event.MessageName() {
`)

	// Group events by name, keeping the sorted order for deterministic output
	names := make([]string, 0)
	eventsByName := make(map[string][]EventInfo)
	for _, event := range g.events {
		if _, seen := eventsByName[event.Name]; !seen {
			names = append(names, event.Name)
		}
		eventsByName[event.Name] = append(eventsByName[event.Name], event)
	}

	// Generate switch cases for each event name
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("\tcase %q:\n", name))
		sb.WriteString("\t\tswitch version := eventVersionOf(event); version {\n")

		for _, event := range eventsByName[name] {
			sb.WriteString(fmt.Sprintf("\t\tcase %d:\n", event.Version))
			sb.WriteString(fmt.Sprintf("\t\t\treturn decodePayload[%s.%s](event)\n",
				event.PackageName, event.Name))
		}

		sb.WriteString("\t\tdefault:\n")
		sb.WriteString(fmt.Sprintf("\t\t\treturn nil, fmt.Errorf(\"unknown version %%d for event type %s\", version)\n",
			name))
		sb.WriteString("\t\t}\n")
	}

	sb.WriteString(`	default:
		return nil, fmt.Errorf("unknown event type: %s", event.MessageName())
	}
}

// decodePayload rebuilds a domain event struct from a message payload.
func decodePayload[T any](event es.Message) (T, error) {
	var e T
	raw, err := es.EncodeJSON(event.Payload())
	if err != nil {
		return e, fmt.Errorf("failed to encode payload of %s: %w", event.MessageName(), err)
	}
	if err := json.Unmarshal(raw, &e); err != nil {
		return e, fmt.Errorf("failed to decode %s: %w", event.MessageName(), err)
	}
	return e, nil
}

// eventVersionOf reads the _event_version metadata field. Events written
// without one count as version 1.
func eventVersionOf(event es.Message) int {
	switch v := event.Metadata()["_event_version"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 1
		}
		return int(n)
	default:
		return 1
	}
}`)

	return sb.String()
}

// generateTypeHelpers generates type-safe per-event helper functions.
func (g *Generator) generateTypeHelpers() string {
	var sb strings.Builder

	for _, event := range g.events {
		// ToXXXVN function
		sb.WriteString(fmt.Sprintf(`// To%sV%d converts the domain event into a store message.
func To%sV%d(e %s.%s, opts ...Option) (es.Message, error) {
	events, err := ToMessages([]%s.%s{e}, opts...)
	if err != nil {
		return nil, err
	}
	return events[0], nil
}

`,
			event.Name, event.Version,
			event.Name, event.Version, event.PackageName, event.Name,
			event.PackageName, event.Name))

		// FromXXXVN function
		sb.WriteString(fmt.Sprintf(`// From%sV%d converts a store message back into the domain event.
// It fails when the message name or version does not match.
func From%sV%d(event es.Message) (%s.%s, error) {
	if event.MessageName() != %q {
		return %s.%s{}, fmt.Errorf("expected event %s, got %%s", event.MessageName())
	}
	if version := eventVersionOf(event); version != %d {
		return %s.%s{}, fmt.Errorf("expected version %d of %s, got %%d", version)
	}
	return decodePayload[%s.%s](event)
}

`,
			event.Name, event.Version,
			event.Name, event.Version, event.PackageName, event.Name,
			event.Name,
			event.PackageName, event.Name, event.Name,
			event.Version,
			event.PackageName, event.Name, event.Version, event.Name,
			event.PackageName, event.Name))
	}

	return sb.String()
}

// getTestFileName returns the test file name based on the output file name.
func (g *Generator) getTestFileName() string {
	// Replace .gen.go with .gen_test.go or .go with _test.go
	if strings.HasSuffix(g.config.OutputFile, ".gen.go") {
		return strings.TrimSuffix(g.config.OutputFile, ".gen.go") + ".gen_test.go"
	}
	if strings.HasSuffix(g.config.OutputFile, ".go") {
		return strings.TrimSuffix(g.config.OutputFile, ".go") + "_test.go"
	}
	return g.config.OutputFile + "_test.go"
}

// generateTestCode generates unit tests for the generated code.
func (g *Generator) generateTestCode() string {
	var sb strings.Builder

	// File header
	sb.WriteString(fmt.Sprintf(`// Code generated by eventmap-gen. DO NOT EDIT.

package %s

import (
	"testing"

	"github.com/getpup/streamstore/es"
	"github.com/google/uuid"
`, g.config.PackageName))

	// Add imports for domain event packages
	importPaths := make(map[string]string)
	for _, event := range g.events {
		if event.ImportPath != "" {
			importPaths[event.ImportPath] = event.PackageName
		}
	}

	if len(importPaths) > 0 {
		sb.WriteString("\n")
		// Sort import paths for deterministic output
		paths := make([]string, 0, len(importPaths))
		for path := range importPaths {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			alias := importPaths[path]
			sb.WriteString(fmt.Sprintf("\t%s %q\n", alias, path))
		}
	}

	sb.WriteString(")\n\n")

	// Test EventTypeOf
	sb.WriteString(g.generateTestEventTypeOf())
	sb.WriteString("\n\n")

	// Test ToMessages with generics
	sb.WriteString(g.generateTestToMessages())
	sb.WriteString("\n\n")

	// Test FromMessages
	sb.WriteString(g.generateTestFromMessages())
	sb.WriteString("\n\n")

	// Test options
	sb.WriteString(g.generateTestOptions())
	sb.WriteString("\n\n")

	// Test type-specific helpers
	sb.WriteString(g.generateTestTypeHelpers())
	sb.WriteString("\n\n")

	// Test error cases
	sb.WriteString(g.generateTestErrorCases())

	return sb.String()
}

// generateTestEventTypeOf generates tests for EventTypeOf function.
func (g *Generator) generateTestEventTypeOf() string {
	var sb strings.Builder

	sb.WriteString(`// TestEventTypeOf tests the EventTypeOf function.
func TestEventTypeOf(t *testing.T) {
	tests := []struct {
		name      string
		event     any
		wantType  string
		wantError bool
	}{
`)

	// Generate test cases for each event
	for _, event := range g.events {
		sb.WriteString("\t\t{\n")
		sb.WriteString(fmt.Sprintf("\t\t\tname:      %q,\n", event.Name+"V"+fmt.Sprint(event.Version)))
		sb.WriteString(fmt.Sprintf("\t\t\tevent:     %s.%s{},\n", event.PackageName, event.Name))
		sb.WriteString(fmt.Sprintf("\t\t\twantType:  %q,\n", event.Name))
		sb.WriteString("\t\t\twantError: false,\n")
		sb.WriteString("\t\t},\n")

		// Test pointer variant
		sb.WriteString("\t\t{\n")
		sb.WriteString(fmt.Sprintf("\t\t\tname:      %q,\n", event.Name+"V"+fmt.Sprint(event.Version)+"Pointer"))
		sb.WriteString(fmt.Sprintf("\t\t\tevent:     &%s.%s{},\n", event.PackageName, event.Name))
		sb.WriteString(fmt.Sprintf("\t\t\twantType:  %q,\n", event.Name))
		sb.WriteString("\t\t\twantError: false,\n")
		sb.WriteString("\t\t},\n")
	}

	// Test unknown type
	sb.WriteString(`		{
			name:      "UnknownType",
			event:     struct{}{},
			wantType:  "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, err := EventTypeOf(tt.event)
			if (err != nil) != tt.wantError {
				t.Errorf("EventTypeOf() error = %v, wantError %v", err, tt.wantError)
				return
			}
			if gotType != tt.wantType {
				t.Errorf("EventTypeOf() = %v, want %v", gotType, tt.wantType)
			}
		})
	}
}`)

	return sb.String()
}

// generateTestToMessages generates tests for the ToMessages function.
func (g *Generator) generateTestToMessages() string {
	if len(g.events) == 0 {
		return ""
	}

	// Pick the first event for testing
	event := g.events[0]

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`// TestToMessages tests the ToMessages function with generics.
func TestToMessages(t *testing.T) {
	domainEvent := %s.%s{}

	// Test with slice of specific type (not []any)
	events := []%s.%s{domainEvent}

	messages, err := ToMessages(events, WithAggregate("TestAggregate", "agg-1", 1))
	if err != nil {
		t.Fatalf("ToMessages() failed: %%v", err)
	}

	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %%d", len(messages))
	}

	message := messages[0]

	if message.MessageName() != %q {
		t.Errorf("MessageName = %%s, want %%s", message.MessageName(), %q)
	}
	if message.UUID() == uuid.Nil {
		t.Error("UUID should not be nil")
	}
	if message.CreatedAt().IsZero() {
		t.Error("CreatedAt should not be zero")
	}

	metadata := message.Metadata()
	if metadata["_aggregate_type"] != "TestAggregate" {
		t.Errorf("_aggregate_type = %%v, want TestAggregate", metadata["_aggregate_type"])
	}
	if metadata["_aggregate_id"] != "agg-1" {
		t.Errorf("_aggregate_id = %%v, want agg-1", metadata["_aggregate_id"])
	}
	if metadata["_aggregate_version"] != int64(1) {
		t.Errorf("_aggregate_version = %%v, want 1", metadata["_aggregate_version"])
	}
	if metadata["_event_version"] != %d {
		t.Errorf("_event_version = %%v, want %%d", metadata["_event_version"], %d)
	}
}`, event.PackageName, event.Name, event.PackageName, event.Name,
		event.Name, event.Name, event.Version, event.Version))

	return sb.String()
}

// generateTestFromMessages generates tests for the FromMessages function.
func (g *Generator) generateTestFromMessages() string {
	if len(g.events) == 0 {
		return ""
	}

	// Pick the first event for testing
	event := g.events[0]

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`// TestFromMessages tests the ToMessages/FromMessages round trip.
func TestFromMessages(t *testing.T) {
	messages, err := ToMessages([]%s.%s{{}})
	if err != nil {
		t.Fatalf("ToMessages() failed: %%v", err)
	}

	domainEvents, err := FromMessages[any](messages)
	if err != nil {
		t.Fatalf("FromMessages() failed: %%v", err)
	}

	if len(domainEvents) != 1 {
		t.Fatalf("Expected 1 domain event, got %%d", len(domainEvents))
	}

	if _, ok := domainEvents[0].(%s.%s); !ok {
		t.Errorf("Expected %%T, got %%T", %s.%s{}, domainEvents[0])
	}
}`, event.PackageName, event.Name, event.PackageName, event.Name, event.PackageName, event.Name))

	return sb.String()
}

// generateTestOptions generates tests for the Options pattern.
func (g *Generator) generateTestOptions() string {
	if len(g.events) == 0 {
		return ""
	}

	event := g.events[0]

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`// TestOptions tests the Options pattern.
func TestOptions(t *testing.T) {
	messages, err := ToMessages(
		[]%s.%s{{}},
		WithCausationID("causation-123"),
		WithCorrelationID("correlation-456"),
		WithTraceID("trace-789"),
		WithMetadata(map[string]any{"actor": "tests"}),
	)
	if err != nil {
		t.Fatalf("ToMessages() failed: %%v", err)
	}

	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %%d", len(messages))
	}

	metadata := messages[0].Metadata()

	if metadata["_causation_id"] != "causation-123" {
		t.Errorf("_causation_id = %%v, want causation-123", metadata["_causation_id"])
	}
	if metadata["_correlation_id"] != "correlation-456" {
		t.Errorf("_correlation_id = %%v, want correlation-456", metadata["_correlation_id"])
	}
	if metadata["_trace_id"] != "trace-789" {
		t.Errorf("_trace_id = %%v, want trace-789", metadata["_trace_id"])
	}
	if metadata["actor"] != "tests" {
		t.Errorf("actor = %%v, want tests", metadata["actor"])
	}
}`, event.PackageName, event.Name))

	return sb.String()
}

// generateTestTypeHelpers generates tests for type-specific helper functions.
func (g *Generator) generateTestTypeHelpers() string {
	if len(g.events) == 0 {
		return ""
	}

	event := g.events[0]

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`// TestTypeHelpers tests type-specific helper functions.
func TestTypeHelpers(t *testing.T) {
	message, err := To%sV%d(%s.%s{})
	if err != nil {
		t.Fatalf("To%sV%d() failed: %%v", err)
	}

	if message.MessageName() != %q {
		t.Errorf("MessageName = %%s, want %%s", message.MessageName(), %q)
	}

	if _, err := From%sV%d(message); err != nil {
		t.Fatalf("From%sV%d() failed: %%v", err)
	}
}`,
		event.Name, event.Version, event.PackageName, event.Name,
		event.Name, event.Version,
		event.Name, event.Name,
		event.Name, event.Version, event.Name, event.Version))

	return sb.String()
}

// generateTestErrorCases generates tests for error handling.
func (g *Generator) generateTestErrorCases() string {
	var sb strings.Builder

	sb.WriteString(`// TestErrorCases tests error handling.
func TestErrorCases(t *testing.T) {
	t.Run("UnknownEventName", func(t *testing.T) {
		event := es.NewGenericEvent("UnknownEvent", nil, nil)
		if _, err := FromMessage(event); err == nil {
			t.Error("Expected error for unknown event name")
		}
	})`)

	if len(g.events) > 0 {
		event := g.events[0]
		sb.WriteString(fmt.Sprintf(`

	t.Run("UnknownVersion", func(t *testing.T) {
		event := es.NewGenericEvent(%q, nil, map[string]any{"_event_version": 99})
		if _, err := FromMessage(event); err == nil {
			t.Error("Expected error for unknown event version")
		}
	})`, event.Name))
	}

	sb.WriteString("\n}")

	return sb.String()
}
