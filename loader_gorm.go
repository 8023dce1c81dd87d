package datagrid

import (
	"context"

	"gorm.io/gorm"
)

// GormLoader loads every row of a table through gorm. The endpoint names the
// table. Filters are applied in order, the same way ServerQuery applies them.
type GormLoader struct {
	DB      *gorm.DB
	Filters []func(*gorm.DB) *gorm.DB
}

// NewGormLoader returns a GormLoader for db.
func NewGormLoader(db *gorm.DB) *GormLoader {
	return &GormLoader{DB: db}
}

// Filter appends a scope applied to every load and returns the loader.
func (l *GormLoader) Filter(filterFunc func(*gorm.DB) *gorm.DB) *GormLoader {
	l.Filters = append(l.Filters, filterFunc)
	return l
}

// Load implements the Loader interface.
func (l *GormLoader) Load(ctx context.Context, endpoint string) (Payload, error) {
	if l.DB == nil {
		return Payload{}, &FetchError{Endpoint: endpoint, Err: ErrNoLoader}
	}

	query := l.DB.WithContext(ctx).Table(endpoint)
	for _, filter := range l.Filters {
		query = filter(query)
	}

	var raw []map[string]any
	if err := query.Find(&raw).Error; err != nil {
		return Payload{}, &FetchError{Endpoint: endpoint, Err: err}
	}

	rows := normalizeRows(raw)
	if rows == nil {
		rows = []Row{}
	}
	return Payload{Rows: rows}, nil
}
