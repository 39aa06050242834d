package memory

import (
	"context"
	"sort"

	"storefront/internal/db"
	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"
)

type Carts struct{ s *Store }

func (s *Store) Carts() *Carts { return &Carts{s: s} }

var _ cartrepo.Repository = (*Carts)(nil)

func (r *Carts) GetOrCreate(_ context.Context, _ db.Querier, userID string) (*domain.Cart, error) {
	unlock, err := r.s.begin("carts.GetOrCreate")
	if err != nil {
		return nil, err
	}
	defer unlock()
	row, ok := r.s.cartByUser(userID)
	if !ok {
		row = cartRow{ID: newID(), UserID: userID, CreatedAt: r.s.now()}
		r.s.st.carts[row.ID] = row
	}
	return &domain.Cart{
		ID:        row.ID,
		UserID:    row.UserID,
		CreatedAt: row.CreatedAt,
		Items:     r.s.cartItems(row.ID),
	}, nil
}

func (r *Carts) ListItems(_ context.Context, _ db.Querier, userID string) ([]domain.CartItem, error) {
	unlock, err := r.s.begin("carts.ListItems")
	if err != nil {
		return nil, err
	}
	defer unlock()
	row, ok := r.s.cartByUser(userID)
	if !ok {
		return nil, nil
	}
	return r.s.cartItems(row.ID), nil
}

func (r *Carts) GetItem(_ context.Context, _ db.Querier, cartID, itemID string) (*domain.CartItem, error) {
	unlock, err := r.s.begin("carts.GetItem")
	if err != nil {
		return nil, err
	}
	defer unlock()
	it, ok := r.s.st.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return nil, domain.ErrNotFound
	}
	item := r.s.joinCartItem(it)
	return &item, nil
}

func (r *Carts) AddItem(_ context.Context, _ db.Querier, cartID, productID string, quantity int) (*domain.CartItem, error) {
	unlock, err := r.s.begin("carts.AddItem")
	if err != nil {
		return nil, err
	}
	defer unlock()
	for _, it := range r.s.st.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			return nil, domain.ErrAlreadyExists
		}
	}
	row := cartItemRow{ID: newID(), CartID: cartID, ProductID: productID, Quantity: quantity, CreatedAt: r.s.now()}
	r.s.st.cartItems[row.ID] = row
	item := r.s.joinCartItem(row)
	return &item, nil
}

func (r *Carts) UpdateItemQuantity(_ context.Context, _ db.Querier, cartID, itemID string, quantity int) error {
	unlock, err := r.s.begin("carts.UpdateItemQuantity")
	if err != nil {
		return err
	}
	defer unlock()
	it, ok := r.s.st.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return domain.ErrNotFound
	}
	it.Quantity = quantity
	r.s.st.cartItems[itemID] = it
	return nil
}

func (r *Carts) DeleteItem(_ context.Context, _ db.Querier, cartID, itemID string) error {
	unlock, err := r.s.begin("carts.DeleteItem")
	if err != nil {
		return err
	}
	defer unlock()
	it, ok := r.s.st.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return domain.ErrNotFound
	}
	delete(r.s.st.cartItems, itemID)
	return nil
}

func (s *Store) cartByUser(userID string) (cartRow, bool) {
	for _, c := range s.st.carts {
		if c.UserID == userID {
			return c, true
		}
	}
	return cartRow{}, false
}

func (s *Store) cartItems(cartID string) []domain.CartItem {
	var out []domain.CartItem
	for _, it := range s.st.cartItems {
		if it.CartID == cartID {
			out = append(out, s.joinCartItem(it))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) joinCartItem(it cartItemRow) domain.CartItem {
	p := s.st.products[it.ProductID]
	return domain.CartItem{
		ID:          it.ID,
		CartID:      it.CartID,
		ProductID:   it.ProductID,
		ProductName: p.Name,
		SellerID:    p.SellerID,
		UnitPrice:   p.Price,
		Stock:       p.Quantity,
		Quantity:    it.Quantity,
		CreatedAt:   it.CreatedAt,
	}
}
