// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"stock_sync/internal/feature/symbollist/domain/entity"
	"stock_sync/internal/feature/symbollist/usecase"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertBatchSize は1回のINSERTで送る銘柄数の上限です。
const upsertBatchSize = 500

// symbolRepository はSymbolRepositoryインターフェースのGORM実装です。
type symbolRepository struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolRepository)(nil)

// NewSymbolRepository は指定されたDB接続でsymbolRepositoryの新しいインスタンスを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolRepository {
	return &symbolRepository{db: db}
}

// ListActive はsort_key順にすべてのアクティブな銘柄を返します。
func (r *symbolRepository) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var symbols []entity.Symbol
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_key ASC").
		Find(&symbols).Error; err != nil {
		return nil, err
	}
	return symbols, nil
}

// ListActiveCodes はsort_key順にアクティブな銘柄のコードのみを返します。
// markets が空でなければ、その市場区分の銘柄に絞り込みます。
func (r *symbolRepository) ListActiveCodes(ctx context.Context, markets []string) ([]string, error) {
	var codes []string
	q := r.db.WithContext(ctx).
		Model(&entity.Symbol{}).
		Where("is_active = ?", true)
	if len(markets) > 0 {
		q = q.Where("market IN ?", markets)
	}
	if err := q.Order("sort_key ASC").Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Upsert はコードをキーに銘柄を登録または更新します。
// deactivateMissing が true の場合、symbols に含まれないアクティブな銘柄を同じトランザクションで非アクティブにし、その件数を返します。
func (r *symbolRepository) Upsert(ctx context.Context, symbols []entity.Symbol, deactivateMissing bool) (int64, error) {
	if len(symbols) == 0 {
		return 0, nil
	}
	// Create は主キーを書き戻すため、呼び出し元のスライスを変更しないようコピーする
	rows := make([]entity.Symbol, len(symbols))
	codes := make([]string, len(symbols))
	for i, s := range symbols {
		s.ID = 0
		rows[i] = s
		codes[i] = s.Code
	}

	var deactivated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "market", "is_active", "sort_key", "updated_at"}),
		}).CreateInBatches(&rows, upsertBatchSize).Error; err != nil {
			return err
		}
		if !deactivateMissing {
			return nil
		}
		res := tx.Model(&entity.Symbol{}).
			Where("is_active = ? AND code NOT IN ?", true, codes).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		deactivated = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deactivated, nil
}
