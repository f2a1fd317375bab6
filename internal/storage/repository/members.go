package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clubops/club-billing/internal/models"
)

// ErrMemberNotFound участник с указанным UID отсутствует в справочнике.
var ErrMemberNotFound = errors.New("member not found")

// ListActiveMembers возвращает всех активных участников клуба.
func (s *Storage) ListActiveMembers(ctx context.Context) ([]*models.Member, error) {
	const op = "storage.ListActiveMembers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, full_name, COALESCE(email, ''), has_sibling_discount, is_active
			  FROM members
			  WHERE is_active = true
			  ORDER BY uid`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Member
	for rows.Next() {
		var item models.Member
		if err := rows.Scan(&item.UID, &item.FullName, &item.Email,
			&item.HasSiblingDiscount, &item.IsActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetMemberByUID возвращает участника по UID.
func (s *Storage) GetMemberByUID(ctx context.Context, uid string) (*models.Member, error) {
	const op = "storage.GetMemberByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, full_name, COALESCE(email, ''), has_sibling_discount, is_active
			  FROM members WHERE uid = $1`
	row := s.DB.QueryRowContext(ctx, query, uid)

	var result models.Member
	if err := row.Scan(&result.UID, &result.FullName, &result.Email,
		&result.HasSiblingDiscount, &result.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrMemberNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
