package memory

import (
	"context"
	"sort"

	"storefront/internal/db"
	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
)

type Orders struct{ s *Store }

func (s *Store) Orders() *Orders { return &Orders{s: s} }

var _ orderrepo.Repository = (*Orders)(nil)

func (r *Orders) FindOrCreatePending(_ context.Context, _ db.Querier, buyerID string) (*domain.Order, bool, error) {
	unlock, err := r.s.begin("orders.FindOrCreatePending")
	if err != nil {
		return nil, false, err
	}
	defer unlock()
	for _, o := range r.s.st.orders {
		if o.BuyerID == buyerID && o.Status == domain.OrderPending {
			out := r.s.orderHeader(o)
			return &out, false, nil
		}
	}
	now := r.s.now()
	row := orderRow{ID: newID(), BuyerID: buyerID, Status: domain.OrderPending, CreatedAt: now, UpdatedAt: now}
	r.s.st.orders[row.ID] = row
	out := r.s.orderHeader(row)
	return &out, true, nil
}

func (r *Orders) Get(_ context.Context, _ db.Querier, id string) (*domain.Order, error) {
	unlock, err := r.s.begin("orders.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := r.s.orderHeader(o)
	return &out, nil
}

// GetForUpdate needs no row lock here: transactions are already serialized.
func (r *Orders) GetForUpdate(ctx context.Context, q db.Querier, id string) (*domain.Order, error) {
	return r.Get(ctx, q, id)
}

func (r *Orders) ListByBuyer(_ context.Context, _ db.Querier, buyerID string, status *domain.OrderStatus) ([]domain.Order, error) {
	unlock, err := r.s.begin("orders.ListByBuyer")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var out []domain.Order
	for _, o := range r.s.st.orders {
		if o.BuyerID != buyerID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		out = append(out, r.s.orderHeader(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Orders) Items(_ context.Context, _ db.Querier, orderID string) ([]domain.OrderItem, error) {
	unlock, err := r.s.begin("orders.Items")
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.s.orderItems(orderID), nil
}

func (r *Orders) ItemsForOrders(_ context.Context, _ db.Querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	unlock, err := r.s.begin("orders.ItemsForOrders")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	for _, id := range orderIDs {
		if items := r.s.orderItems(id); len(items) > 0 {
			out[id] = items
		}
	}
	return out, nil
}

func (r *Orders) InsertItems(_ context.Context, _ db.Querier, orderID string, items []orderrepo.NewItem) error {
	unlock, err := r.s.begin("orders.InsertItems")
	if err != nil {
		return err
	}
	defer unlock()
	for _, it := range items {
		for _, existing := range r.s.st.orderItems {
			if existing.OrderID == orderID && existing.ProductID == it.ProductID {
				return domain.ErrAlreadyExists
			}
		}
		now := r.s.now()
		row := orderItemRow{ID: newID(), OrderID: orderID, ProductID: it.ProductID, Quantity: it.Quantity, CreatedAt: now, UpdatedAt: now}
		r.s.st.orderItems[row.ID] = row
	}
	return nil
}

func (r *Orders) UpdateItemQuantity(_ context.Context, _ db.Querier, itemID string, quantity int) error {
	unlock, err := r.s.begin("orders.UpdateItemQuantity")
	if err != nil {
		return err
	}
	defer unlock()
	it, ok := r.s.st.orderItems[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	it.Quantity = quantity
	it.UpdatedAt = r.s.now()
	r.s.st.orderItems[itemID] = it
	return nil
}

func (r *Orders) DeleteItemsExcept(_ context.Context, _ db.Querier, orderID string, keep []string) (int64, error) {
	unlock, err := r.s.begin("orders.DeleteItemsExcept")
	if err != nil {
		return 0, err
	}
	defer unlock()
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var n int64
	for id, it := range r.s.st.orderItems {
		if it.OrderID != orderID {
			continue
		}
		if _, ok := keepSet[it.ProductID]; !ok {
			delete(r.s.st.orderItems, id)
			n++
		}
	}
	return n, nil
}

func (r *Orders) TransitionStatus(_ context.Context, _ db.Querier, id string, from, to domain.OrderStatus) (bool, error) {
	unlock, err := r.s.begin("orders.TransitionStatus")
	if err != nil {
		return false, err
	}
	defer unlock()
	o, ok := r.s.st.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = r.s.now()
	r.s.st.orders[id] = o
	return true, nil
}

func (r *Orders) SetAddresses(_ context.Context, _ db.Querier, id string, shippingID, billingID *string) error {
	unlock, err := r.s.begin("orders.SetAddresses")
	if err != nil {
		return err
	}
	defer unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.ShippingID = shippingID
	o.BillingID = billingID
	o.UpdatedAt = r.s.now()
	r.s.st.orders[id] = o
	return nil
}

func (r *Orders) Delete(_ context.Context, _ db.Querier, id string) error {
	unlock, err := r.s.begin("orders.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.st.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.st.orders, id)
	for k, it := range r.s.st.orderItems {
		if it.OrderID == id {
			delete(r.s.st.orderItems, k)
		}
	}
	for k, p := range r.s.st.payments {
		if p.OrderID == id {
			delete(r.s.st.payments, k)
		}
	}
	return nil
}

func (s *Store) orderHeader(o orderRow) domain.Order {
	buyer := s.st.users[o.BuyerID]
	return domain.Order{
		ID:                o.ID,
		BuyerID:           o.BuyerID,
		BuyerName:         buyer.FullName(),
		Status:            o.Status,
		ShippingAddressID: o.ShippingID,
		BillingAddressID:  o.BillingID,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func (s *Store) orderItems(orderID string) []domain.OrderItem {
	var out []domain.OrderItem
	for _, it := range s.st.orderItems {
		if it.OrderID != orderID {
			continue
		}
		p := s.st.products[it.ProductID]
		out = append(out, domain.OrderItem{
			ID:                 it.ID,
			OrderID:            it.OrderID,
			ProductID:          it.ProductID,
			ProductName:        p.Name,
			ProductDescription: p.Description,
			UnitPrice:          p.Price,
			Stock:              p.Quantity,
			Quantity:           it.Quantity,
			CreatedAt:          it.CreatedAt,
			UpdatedAt:          it.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
