package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clubops/club-billing/internal/models"
)

// FindSharesByPeriod возвращает квоты расчётного периода periodDate,
// принадлежащие участникам из memberUIDs. Пустой список memberUIDs
// означает отсутствие ограничения.
func (s *Storage) FindSharesByPeriod(ctx context.Context, periodDate time.Time, memberUIDs []string) ([]*models.Share, error) {
	const op = "storage.FindSharesByPeriod"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, member_uid, period_date, amount, state, payment_method, payment_date, updated_by
			  FROM shares
			  WHERE period_date = $1
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, periodDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	wanted := make(map[string]struct{}, len(memberUIDs))
	for _, uid := range memberUIDs {
		wanted[uid] = struct{}{}
	}

	var result []*models.Share
	for rows.Next() {
		var item models.Share
		if err := rows.Scan(&item.ID, &item.MemberUID, &item.PeriodDate, &item.Amount,
			&item.State, &item.PaymentMethod, &item.PaymentDate, &item.UpdatedBy); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(wanted) > 0 {
			if _, ok := wanted[item.MemberUID]; !ok {
				continue
			}
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindSharesByStates возвращает квоты в перечисленных состояниях вместе
// с признаком семейной скидки владельца. Оплаченные квоты отсекаются
// самим запросом, а не фильтрацией результата.
func (s *Storage) FindSharesByStates(ctx context.Context, states []models.ShareState) ([]*models.OutstandingShare, error) {
	const op = "storage.FindSharesByStates"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if len(states) == 0 {
		return nil, nil
	}

	placeholders := make([]string, 0, len(states))
	args := make([]any, 0, len(states))
	for i, state := range states {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, string(state))
	}

	query := fmt.Sprintf(`SELECT s.id, s.member_uid, s.period_date, s.amount, s.state,
				  s.payment_method, s.payment_date, s.updated_by, m.has_sibling_discount
			  FROM shares s
			  JOIN members m ON m.uid = s.member_uid
			  WHERE s.state IN (%s)
			  ORDER BY s.id`, strings.Join(placeholders, ", "))
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.OutstandingShare
	for rows.Next() {
		var item models.OutstandingShare
		if err := rows.Scan(&item.Share.ID, &item.Share.MemberUID, &item.Share.PeriodDate,
			&item.Share.Amount, &item.Share.State, &item.Share.PaymentMethod,
			&item.Share.PaymentDate, &item.Share.UpdatedBy, &item.HasSiblingDiscount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// BulkInsertShares вставляет новые квоты одной транзакцией и возвращает
// фактически созданные записи. Конфликт по уникальной паре
// (member_uid, period_date) молча пропускается: страховка идемпотентности
// на случай параллельного запуска генерации.
func (s *Storage) BulkInsertShares(ctx context.Context, drafts []models.ShareDraft) ([]*models.Share, error) {
	const op = "storage.BulkInsertShares"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if len(drafts) == 0 {
		return nil, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO shares (member_uid, period_date, amount, state)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (member_uid, period_date) DO NOTHING
			  RETURNING id`
	var result []*models.Share
	for _, draft := range drafts {
		var newID int
		err := tx.QueryRowContext(ctx, query,
			draft.MemberUID, draft.PeriodDate, draft.Amount, string(draft.State)).Scan(&newID)
		if err != nil {
			// Конфликт по (member_uid, period_date): квота уже существует.
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &models.Share{
			ID:         newID,
			MemberUID:  draft.MemberUID,
			PeriodDate: draft.PeriodDate,
			Amount:     draft.Amount,
			State:      draft.State,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// BulkUpdateShares применяет переоценку пачкой в одной транзакции
// и возвращает количество изменённых квот.
func (s *Storage) BulkUpdateShares(ctx context.Context, updates []models.ShareUpdate) (int, error) {
	const op = "storage.BulkUpdateShares"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE shares
			  SET amount = $1, state = $2, updated_at = now()
			  WHERE id = $3 AND state <> 'paid'`
	var total int
	for _, u := range updates {
		result, err := tx.ExecContext(ctx, query, u.Amount, string(u.State), u.ID)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		total += int(rowsAffected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// MarkSharePaid фиксирует оплату квоты: способ, дату и автора изменения.
// Повторная фиксация и неизвестный ID различаются возвращаемой ошибкой.
func (s *Storage) MarkSharePaid(ctx context.Context, id int, paymentMethod string, paymentDate time.Time, updatedBy string) error {
	const op = "storage.MarkSharePaid"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE shares
			  SET state = 'paid', payment_method = $1, payment_date = $2, updated_by = $3, updated_at = now()
			  WHERE id = $4 AND state <> 'paid'`
	result, err := s.DB.ExecContext(ctx, query, paymentMethod, paymentDate, updatedBy, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM shares WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, ErrShareNotFound)
	}
	return fmt.Errorf("%s: %w", op, ErrShareAlreadyPaid)
}
