// Package memory is an in-process implementation of every repository and
// of db.Runner. A transaction snapshots the whole store and restores it when
// the callback fails, so rollback is observable the same way it is against
// Postgres.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/db"
	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartRow struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

type cartItemRow struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	CreatedAt time.Time
}

type orderRow struct {
	ID         string
	BuyerID    string
	Status     domain.OrderStatus
	ShippingID *string
	BillingID  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type orderItemRow struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type state struct {
	users      map[string]domain.User
	tokens     map[string]tokenrepo.Token
	categories map[string]domain.Category
	products   map[string]domain.Product
	carts      map[string]cartRow
	cartItems  map[string]cartItemRow
	orders     map[string]orderRow
	orderItems map[string]orderItemRow
	addresses  map[string]domain.Address
	payments   map[string]domain.Payment
}

func newState() state {
	return state{
		users:      map[string]domain.User{},
		tokens:     map[string]tokenrepo.Token{},
		categories: map[string]domain.Category{},
		products:   map[string]domain.Product{},
		carts:      map[string]cartRow{},
		cartItems:  map[string]cartItemRow{},
		orders:     map[string]orderRow{},
		orderItems: map[string]orderItemRow{},
		addresses:  map[string]domain.Address{},
		payments:   map[string]domain.Payment{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		users:      cloneMap(s.users),
		tokens:     cloneMap(s.tokens),
		categories: cloneMap(s.categories),
		products:   cloneMap(s.products),
		carts:      cloneMap(s.carts),
		cartItems:  cloneMap(s.cartItems),
		orders:     cloneMap(s.orders),
		orderItems: cloneMap(s.orderItems),
		addresses:  cloneMap(s.addresses),
		payments:   cloneMap(s.payments),
	}
}

// Store holds all in-memory tables.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   state

	clock    time.Time
	failures map[string]error
}

func New() *Store {
	return &Store{
		st:       newState(),
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		failures: map[string]error{},
	}
}

var _ db.Runner = (*Store)(nil)

// Querier returns nil; memory repositories ignore the querier argument.
func (s *Store) Querier() db.Querier {
	return nil
}

// InTx serializes transactions and restores the pre-transaction state when
// fn returns an error or panics.
func (s *Store) InTx(ctx context.Context, fn func(q db.Querier) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()
	return fn(nil)
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	s.st = snapshot
	s.mu.Unlock()
}

// FailOn makes the named operation (e.g. "orders.InsertItems") return err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// begin locks the store for op and returns the matching unlock. An injected
// failure for op is returned with the store left unlocked.
func (s *Store) begin(op string) (func(), error) {
	s.mu.Lock()
	if err := s.failures[op]; err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return s.mu.Unlock, nil
}

// now returns a strictly increasing timestamp. Callers hold s.mu.
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func newID() string {
	return uuid.NewString()
}

// SeedUser inserts a user with a cart and returns it.
func (s *Store) SeedUser(username string, staff bool) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domain.User{
		ID:        newID(),
		Email:     username + "@example.com",
		Username:  username,
		FirstName: username,
		IsStaff:   staff,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	s.st.users[u.ID] = u
	c := cartRow{ID: newID(), UserID: u.ID, CreatedAt: s.now()}
	s.st.carts[c.ID] = c
	return u
}

// SeedProduct inserts a product owned by sellerID.
func (s *Store) SeedProduct(sellerID, name, price string, quantity int) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	p := domain.Product{
		ID:        newID(),
		SellerID:  sellerID,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.st.products[p.ID] = p
	return p
}

// Product returns the stored product, panicking when it is missing.
func (s *Store) Product(id string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		panic(fmt.Sprintf("memory: product %s not found", id))
	}
	return p
}

// SetPrice changes a product's price.
func (s *Store) SetPrice(id, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.st.products[id]
	p.Price = decimal.RequireFromString(price)
	s.st.products[id] = p
}

// SetStock changes a product's available quantity.
func (s *Store) SetStock(id string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.st.products[id]
	p.Quantity = quantity
	s.st.products[id] = p
}

// CountOrders returns how many orders the buyer has in the given status.
func (s *Store) CountOrders(buyerID string, status domain.OrderStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, o := range s.st.orders {
		if o.BuyerID == buyerID && o.Status == status {
			n++
		}
	}
	return n
}

// CountAddresses returns the number of stored addresses.
func (s *Store) CountAddresses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.addresses)
}

// PaymentFor returns the order's payment, if any.
func (s *Store) PaymentFor(orderID string) (domain.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.st.payments {
		if p.OrderID == orderID {
			return p, true
		}
	}
	return domain.Payment{}, false
}
