package catalog

import (
	"context"
	"errors"

	"github.com/yniverz/erp-rent/internal/availability"
)

// EngineStore adapts the catalog repository to the availability engine's
// ItemStore port.
type EngineStore struct {
	repo Repository
}

// NewEngineStore builds the adapter.
func NewEngineStore(repo Repository) EngineStore {
	return EngineStore{repo: repo}
}

func (s EngineStore) GetItem(ctx context.Context, id int64) (availability.Item, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return availability.Item{}, availability.ErrItemNotFound
		}
		return availability.Item{}, err
	}

	out := availability.Item{
		ID:            item.ID,
		Name:          item.Name,
		Kind:          availability.ItemKind(item.Kind),
		TotalQuantity: item.TotalQuantity,
	}
	for _, c := range item.Components {
		out.Components = append(out.Components, availability.Component{
			ItemID:     c.ItemID,
			QtyPerUnit: c.QtyPerUnit,
		})
	}
	return out, nil
}
