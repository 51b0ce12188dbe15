package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bimquery/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// elementColumns is the projection used by ordinary reads; the embedding
// column is only loaded by VectorsForModel.
const elementColumns = `
	id, model_urn, viewable_guid, element_id, name, category, type_name,
	family_name, is_asset, level, room_type, room_name, system_type,
	system_name, manufacturer, model_name, specification,
	classification_title, classification_number, properties, created_at`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// buildFilter renders the conjunctive element filter into a WHERE clause.
// Attribute names come exclusively from the model.FilterAttr allow-list.
func buildFilter(f model.ElementFilter, argIndex int) (string, []interface{}, int) {
	whereClauses := []string{fmt.Sprintf("model_urn = $%d", argIndex)}
	args := []interface{}{f.ModelURN}
	argIndex++

	if len(f.ElementIDs) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("element_id = ANY($%d)", argIndex))
		args = append(args, pq.Array(f.ElementIDs))
		argIndex++
	}
	if f.Category != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, f.Category)
		argIndex++
	}
	if col := f.Attr.Column(); col != "" && f.Value != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", col, argIndex))
		args = append(args, f.Value)
		argIndex++
	}

	return strings.Join(whereClauses, " AND "), args, argIndex
}

// CountElements returns the number of rows matching the filter.
func (r *PostgresRepository) CountElements(ctx context.Context, f model.ElementFilter) (int, error) {
	whereClause, args, _ := buildFilter(f, 1)
	query := fmt.Sprintf("SELECT COUNT(*) FROM elements WHERE %s", whereClause)

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count elements: %w", err)
	}
	return total, nil
}

// DistinctCategories returns the distinct non-empty categories of a model.
func (r *PostgresRepository) DistinctCategories(ctx context.Context, modelURN string, limit int) ([]string, error) {
	query := `
		SELECT DISTINCT category FROM elements
		WHERE model_urn = $1 AND category <> ''
		ORDER BY category
		LIMIT $2
	`
	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query, modelURN, limit); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// DistinctValues returns up to limit distinct non-empty values of an
// allow-listed attribute among rows matching the filter.
func (r *PostgresRepository) DistinctValues(ctx context.Context, f model.ElementFilter, attr model.FilterAttr, limit int) ([]string, error) {
	col := attr.Column()
	if col == "" {
		return nil, fmt.Errorf("attribute %q is not queryable", attr)
	}

	whereClause, args, argIndex := buildFilter(f, 1)
	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM elements
		WHERE %s AND %s <> ''
		ORDER BY %s
		LIMIT $%d
	`, col, whereClause, col, col, argIndex)
	args = append(args, limit)

	var values []string
	if err := r.db.SelectContext(ctx, &values, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list distinct %s: %w", col, err)
	}
	return values, nil
}

// GroupCountByAttr returns the top groups of an allow-listed attribute,
// descending by count.
func (r *PostgresRepository) GroupCountByAttr(ctx context.Context, f model.ElementFilter, attr model.FilterAttr, limit int) ([]model.GroupCount, error) {
	col := attr.Column()
	if col == "" {
		return nil, fmt.Errorf("attribute %q is not queryable", attr)
	}

	whereClause, args, argIndex := buildFilter(f, 1)
	query := fmt.Sprintf(`
		SELECT %s AS value, COUNT(*) AS count FROM elements
		WHERE %s AND %s <> ''
		GROUP BY %s
		ORDER BY count DESC, value
		LIMIT $%d
	`, col, whereClause, col, col, argIndex)
	args = append(args, limit)

	var groups []model.GroupCount
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("failed to group by %s: %w", col, err)
	}
	return groups, nil
}

// ListElements returns up to limit rows matching the filter.
func (r *PostgresRepository) ListElements(ctx context.Context, f model.ElementFilter, limit int) ([]model.Element, error) {
	whereClause, args, argIndex := buildFilter(f, 1)
	query := fmt.Sprintf(`
		SELECT %s FROM elements
		WHERE %s
		ORDER BY id
		LIMIT $%d
	`, elementColumns, whereClause, argIndex)
	args = append(args, limit)

	var elements []model.Element
	if err := r.db.SelectContext(ctx, &elements, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch elements: %w", err)
	}
	return elements, nil
}

// PropertyValues extracts one flattened property key from every row
// matching the filter. The key is passed as data, never interpolated.
func (r *PostgresRepository) PropertyValues(ctx context.Context, f model.ElementFilter, key string) ([]sql.NullString, error) {
	whereClause, args, argIndex := buildFilter(f, 1)
	query := fmt.Sprintf(`
		SELECT properties->>$%d FROM elements
		WHERE %s
		ORDER BY id
	`, argIndex, whereClause)
	args = append(args, key)

	var values []sql.NullString
	if err := r.db.SelectContext(ctx, &values, query, args...); err != nil {
		return nil, fmt.Errorf("failed to extract property %q: %w", key, err)
	}
	return values, nil
}

// SampleProperties returns the property maps of a bounded row prefix, used
// by the catalog's area-key detection.
func (r *PostgresRepository) SampleProperties(ctx context.Context, modelURN string, rowLimit int) ([]model.PropertyMap, error) {
	query := `
		SELECT properties FROM elements
		WHERE model_urn = $1
		ORDER BY id
		LIMIT $2
	`
	var maps []model.PropertyMap
	if err := r.db.SelectContext(ctx, &maps, query, modelURN, rowLimit); err != nil {
		return nil, fmt.Errorf("failed to sample properties: %w", err)
	}
	return maps, nil
}

// VectorsForModel loads every row of the model that has a stored embedding,
// in stable insert order.
func (r *PostgresRepository) VectorsForModel(ctx context.Context, modelURN string) ([]model.ElementVector, error) {
	query := `
		SELECT element_id, embedding FROM elements
		WHERE model_urn = $1 AND embedding IS NOT NULL
		ORDER BY id
	`
	var vectors []model.ElementVector
	if err := r.db.SelectContext(ctx, &vectors, query, modelURN); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}
	return vectors, nil
}

// ReplaceModelElements replaces all rows of one model URN inside a single
// transaction: a crash mid-run never leaves a partition partially written.
func (r *PostgresRepository) ReplaceModelElements(ctx context.Context, modelURN string, elements []model.Element) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE model_urn = $1`, modelURN); err != nil {
		return fmt.Errorf("failed to delete old elements: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO elements (
			model_urn, viewable_guid, element_id, name, category, type_name,
			family_name, is_asset, level, room_type, room_name, system_type,
			system_name, manufacturer, model_name, specification,
			classification_title, classification_number, properties,
			embedding, embedding_model, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range elements {
		var embedding interface{}
		if len(e.Embedding.Slice()) > 0 {
			embedding = pgvector.NewVector(e.Embedding.Slice())
		}
		_, err := stmt.ExecContext(ctx,
			modelURN, e.ViewableGUID, e.ElementID, e.Name, e.Category,
			e.TypeName, e.FamilyName, e.IsAsset, e.Level, e.RoomType,
			e.RoomName, e.SystemType, e.SystemName, e.Manufacturer,
			e.ModelName, e.Specification, e.ClassificationTitle,
			e.ClassificationNumber, e.Properties, embedding, e.EmbeddingModel,
		)
		if err != nil {
			return fmt.Errorf("failed to insert element %d: %w", e.ElementID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LogChat logs a resolved chat request
func (r *PostgresRepository) LogChat(ctx context.Context, chatID, modelURN, question string, plan *model.QueryPlan, resultCount int, answer string, responseTimeMs int) error {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	query := `
		INSERT INTO chat_logs (chat_id, model_urn, question, plan, result_count, answer, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query, chatID, modelURN, question, planJSON, resultCount, answer, responseTimeMs); err != nil {
		return fmt.Errorf("failed to log chat: %w", err)
	}
	return nil
}
