package repository

import (
	"context"
	"fmt"

	"github.com/forgo/guildhall/api/internal/database"
	"github.com/forgo/guildhall/api/internal/model"
)

const guildFields = `record::id(id) AS id, type, name, description, character, invite, owner, advisor, voter`

// GuildRepository handles guild data access
type GuildRepository struct {
	db database.Database
}

// NewGuildRepository creates a new guild repository
func NewGuildRepository(db database.Database) *GuildRepository {
	return &GuildRepository{db: db}
}

// FindAll returns every stored guild
func (r *GuildRepository) FindAll(ctx context.Context) ([]*model.Guild, error) {
	result, err := r.db.Query(ctx, `SELECT `+guildFields+` FROM guild`, nil)
	if err != nil {
		return nil, err
	}

	rows := extractRows(result)
	guilds := make([]*model.Guild, 0, len(rows))
	for _, row := range rows {
		guilds = append(guilds, parseGuild(row))
	}
	return guilds, nil
}

// Create stores a new guild under its own id
func (r *GuildRepository) Create(ctx context.Context, guild *model.Guild) error {
	query := `CREATE type::thing("guild", $id) CONTENT $content`
	vars := map[string]interface{}{
		"id":      guild.ID,
		"content": guildContent(guild),
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("guild %s: %w", guild.ID, err)
	}
	return nil
}

// Update replaces a stored guild
func (r *GuildRepository) Update(ctx context.Context, guild *model.Guild) error {
	query := `UPDATE type::thing("guild", $id) CONTENT $content`
	vars := map[string]interface{}{
		"id":      guild.ID,
		"content": guildContent(guild),
	}
	return r.db.Execute(ctx, query, vars)
}

// Delete removes a guild
func (r *GuildRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::thing("guild", $id)`, map[string]interface{}{"id": id})
}

func guildContent(g *model.Guild) map[string]interface{} {
	return map[string]interface{}{
		"type":        g.Type,
		"name":        g.Name,
		"description": g.Description,
		"character":   g.Character,
		"invite":      g.Invite,
		"owner":       g.Owner,
		"advisor":     g.Advisor,
		"voter":       g.Voter,
	}
}

func parseGuild(row map[string]interface{}) *model.Guild {
	return &model.Guild{
		ID:          extractRecordID(row["id"]),
		Type:        getInt(row, "type"),
		Name:        getString(row, "name"),
		Description: getString(row, "description"),
		Character:   getString(row, "character"),
		Invite:      getString(row, "invite"),
		Owner:       getString(row, "owner"),
		Advisor:     getString(row, "advisor"),
		Voter:       getString(row, "voter"),
	}
}
