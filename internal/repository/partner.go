package repository

import (
	"context"
	"fmt"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

// PartnerRepository handles partner data access
type PartnerRepository struct {
	db database.Database
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db database.Database) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// FindAll returns every stored partner
func (r *PartnerRepository) FindAll(ctx context.Context) ([]*model.Partner, error) {
	result, err := r.db.Query(ctx, `SELECT record::id(id) AS id, name FROM partner`, nil)
	if err != nil {
		return nil, err
	}

	rows := extractRows(result)
	partners := make([]*model.Partner, 0, len(rows))
	for _, row := range rows {
		partners = append(partners, &model.Partner{
			ID:   extractRecordID(row["id"]),
			Name: getString(row, "name"),
		})
	}
	return partners, nil
}

// Create stores a new partner under its own id
func (r *PartnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	query := `CREATE type::thing("partner", $id) CONTENT { name: $name }`
	vars := map[string]interface{}{"id": partner.ID, "name": partner.Name}
	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("partner %s: %w", partner.ID, err)
	}
	return nil
}

// Update replaces a stored partner
func (r *PartnerRepository) Update(ctx context.Context, partner *model.Partner) error {
	query := `UPDATE type::thing("partner", $id) SET name = $name`
	return r.db.Execute(ctx, query, map[string]interface{}{"id": partner.ID, "name": partner.Name})
}

// Delete removes a partner
func (r *PartnerRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::thing("partner", $id)`, map[string]interface{}{"id": id})
}
