package migration

import (
	"fmt"
	"sync"
)

// SchemaRegistry holds the schema definitions of all local databases.
type SchemaRegistry struct {
	mu      sync.RWMutex
	schemas map[DatabaseType]*DatabaseSchema
}

var globalRegistry = &SchemaRegistry{
	schemas: make(map[DatabaseType]*DatabaseSchema),
}

// RegisterSchema registers a schema in the global registry.
func RegisterSchema(schema *DatabaseSchema) error {
	return globalRegistry.Register(schema)
}

// GetSchema looks up a schema by type.
func GetSchema(dbType DatabaseType) (*DatabaseSchema, error) {
	return globalRegistry.Get(dbType)
}

// ListSchemas lists all registered schema types.
func ListSchemas() []DatabaseType {
	return globalRegistry.List()
}

func (r *SchemaRegistry) Register(schema *DatabaseSchema) error {
	if schema == nil {
		return fmt.Errorf("schema cannot be nil")
	}
	if schema.Type == "" {
		return fmt.Errorf("schema type cannot be empty")
	}
	if schema.MigrationSource == nil {
		return fmt.Errorf("schema migration source cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Type]; exists {
		return fmt.Errorf("schema type %s already registered", schema.Type)
	}
	r.schemas[schema.Type] = schema
	return nil
}

func (r *SchemaRegistry) Get(dbType DatabaseType) (*DatabaseSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[dbType]
	if !exists {
		return nil, fmt.Errorf("schema type %s not registered", dbType)
	}
	return schema, nil
}

func (r *SchemaRegistry) List() []DatabaseType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]DatabaseType, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	return types
}

// MustRegisterSchema registers a schema and panics on failure. Meant for
// package init of schema-owning packages.
func MustRegisterSchema(schema *DatabaseSchema) {
	if err := RegisterSchema(schema); err != nil {
		panic(fmt.Sprintf("failed to register schema: %v", err))
	}
}
