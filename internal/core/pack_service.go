package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PackItemInput is one line supplied when creating a pack or replacing its
// item list. A zero SuggestedQty defaults to 1.
type PackItemInput struct {
	ArticleID    int
	SuggestedQty decimal.Decimal
}

// PackInput is the input for creating a pack.
type PackInput struct {
	Name        string
	Description string
	CategoryID  *int
	Items       []PackItemInput
}

// PackPatch is a partial update; a nil Items slice leaves the list
// untouched, a non-nil slice fully replaces it.
type PackPatch struct {
	Name        *string
	Description *string
	CategoryID  *int
	Items       []PackItemInput
}

// PackService manages packs and their ordered item lists.
type PackService interface {
	ListPacks(ctx context.Context) ([]Pack, error)
	GetPack(ctx context.Context, id int) (*Pack, error)
	CreatePack(ctx context.Context, input PackInput) (*Pack, error)
	UpdatePack(ctx context.Context, id int, patch PackPatch) (*Pack, error)
	DeletePack(ctx context.Context, id int) error
}

type packService struct {
	pool *pgxpool.Pool
}

func NewPackService(pool *pgxpool.Pool) PackService {
	return &packService{pool: pool}
}

func (s *packService) ListPacks(ctx context.Context) ([]Pack, error) {
	return s.loadPacks(ctx, "true")
}

func (s *packService) GetPack(ctx context.Context, id int) (*Pack, error) {
	packs, err := s.loadPacks(ctx, "p.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(packs) == 0 {
		return nil, fmt.Errorf("pack %d: %w", id, ErrNotFound)
	}
	return &packs[0], nil
}

func (s *packService) CreatePack(ctx context.Context, input PackInput) (*Pack, error) {
	if input.Name == "" {
		return nil, validationf("pack name is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int
	err = tx.QueryRow(ctx, `
		INSERT INTO packs (name, description, category_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, input.Name, input.Description, input.CategoryID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create pack: %w", err)
	}

	if err := insertPackItems(ctx, tx, id, input.Items); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit pack creation: %w", err)
	}
	return s.GetPack(ctx, id)
}

func (s *packService) UpdatePack(ctx context.Context, id int, patch PackPatch) (*Pack, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE packs SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			category_id = COALESCE($4, category_id)
		WHERE id = $1
	`, id, patch.Name, patch.Description, patch.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to update pack %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return nil, fmt.Errorf("pack %d: %w", id, ErrNotFound)
	}

	if patch.Items != nil {
		if _, err := tx.Exec(ctx, "DELETE FROM pack_items WHERE pack_id = $1", id); err != nil {
			return nil, fmt.Errorf("failed to clear pack items: %w", err)
		}
		if err := insertPackItems(ctx, tx, id, patch.Items); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit pack update: %w", err)
	}
	return s.GetPack(ctx, id)
}

func (s *packService) DeletePack(ctx context.Context, id int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM pack_items WHERE pack_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete items for pack %d: %w", id, err)
	}
	ct, err := tx.Exec(ctx, "DELETE FROM packs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete pack %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("pack %d: %w", id, ErrNotFound)
	}
	return tx.Commit(ctx)
}

func insertPackItems(ctx context.Context, tx pgx.Tx, packID int, items []PackItemInput) error {
	for i, it := range items {
		qty := it.SuggestedQty
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM articles WHERE id = $1)", it.ArticleID).Scan(&exists); err != nil {
			return fmt.Errorf("pack item %d: failed to resolve article %d: %w", i+1, it.ArticleID, err)
		}
		if !exists {
			return validationf("pack item %d: article %d does not exist", i+1, it.ArticleID)
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO pack_items (pack_id, article_id, suggested_qty, position)
			VALUES ($1, $2, $3, $4)
		`, packID, it.ArticleID, qty, i+1)
		if err != nil {
			return fmt.Errorf("failed to insert pack item %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *packService) loadPacks(ctx context.Context, where string, args ...any) ([]Pack, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, p.description, p.category_id, COALESCE(c.name, ''), p.created_at
		FROM packs p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE `+where+`
		ORDER BY p.name
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query packs: %w", err)
	}
	defer rows.Close()

	var packs []Pack
	var ids []int64
	for rows.Next() {
		var p Pack
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.CategoryName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pack: %w", err)
		}
		p.Items = []PackItem{}
		packs = append(packs, p)
		ids = append(ids, int64(p.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(packs) == 0 {
		return packs, nil
	}

	itemRows, err := s.pool.Query(ctx, `
		SELECT pi.id, pi.pack_id, pi.article_id, a.name, a.is_active, pi.suggested_qty, pi.position
		FROM pack_items pi
		JOIN articles a ON a.id = pi.article_id
		WHERE pi.pack_id = ANY($1)
		ORDER BY pi.pack_id, pi.position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query pack items: %w", err)
	}
	defer itemRows.Close()

	byPack := make(map[int][]PackItem, len(packs))
	for itemRows.Next() {
		var it PackItem
		if err := itemRows.Scan(&it.ID, &it.PackID, &it.ArticleID, &it.ArticleName, &it.ArticleActive,
			&it.SuggestedQty, &it.Position); err != nil {
			return nil, fmt.Errorf("failed to scan pack item: %w", err)
		}
		byPack[it.PackID] = append(byPack[it.PackID], it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for i := range packs {
		if items, ok := byPack[packs[i].ID]; ok {
			packs[i].Items = items
		}
	}
	return packs, nil
}
