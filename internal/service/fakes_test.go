package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"frendo-pos/internal/event"
	"frendo-pos/internal/model"
	"frendo-pos/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	errForeignKey = &pgconn.PgError{Code: "23503"}
	errUnique     = &pgconn.PgError{Code: "23505"}
	errStore      = errors.New("connection reset")
)

func ensureID(b *model.BaseModel) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
}

// ---- products ----

type fakeProducts struct {
	mu        sync.Mutex
	items     map[uuid.UUID]model.Product
	discounts *fakeDiscounts
	failWrite error
	deleteErr error
}

func newFakeProducts(discounts *fakeDiscounts) *fakeProducts {
	return &fakeProducts{items: map[uuid.UUID]model.Product{}, discounts: discounts}
}

func (f *fakeProducts) put(p model.Product) *model.Product {
	ensureID(&p.BaseModel)
	f.mu.Lock()
	f.items[p.ID] = p
	f.mu.Unlock()
	return &p
}

func (f *fakeProducts) stock(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].Stock
}

func (f *fakeProducts) Create(p *model.Product) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	ensureID(&p.BaseModel)
	f.mu.Lock()
	f.items[p.ID] = *p
	f.mu.Unlock()
	return nil
}

func (f *fakeProducts) FindAll() ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Product
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) FindForCheckout(query string) ([]model.Product, error) {
	all, _ := f.FindAll()
	var out []model.Product
	for _, p := range all {
		if !p.IsActive || p.Stock <= 0 {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			continue
		}
		f.attach(&p)
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) attach(p *model.Product) {
	if p.DiscountID != nil && f.discounts != nil {
		if d, err := f.discounts.FindByID(*p.DiscountID); err == nil {
			p.Discount = d
		}
	}
}

func (f *fakeProducts) FindByID(id uuid.UUID) (*model.Product, error) {
	f.mu.Lock()
	p, ok := f.items[id]
	f.mu.Unlock()
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	f.attach(&p)
	return &p, nil
}

func (f *fakeProducts) Update(p *model.Product) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProducts) Count() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.items)), nil
}

func (f *fakeProducts) CountLowStock(threshold int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.items {
		if p.Stock <= threshold {
			n++
		}
	}
	return n, nil
}

// ---- categories / discounts ----

type fakeCategories struct {
	items     map[uuid.UUID]model.Category
	deleteErr error
}

func newFakeCategories() *fakeCategories {
	return &fakeCategories{items: map[uuid.UUID]model.Category{}}
}

func (f *fakeCategories) Create(c *model.Category) error {
	ensureID(&c.BaseModel)
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCategories) FindAll() ([]model.Category, error) {
	var out []model.Category
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategories) FindAllByName() ([]model.Category, error) { return f.FindAll() }

func (f *fakeCategories) FindByID(id uuid.UUID) (*model.Category, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (f *fakeCategories) Update(c *model.Category) error {
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCategories) Delete(id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeDiscounts struct {
	mu    sync.Mutex
	items map[uuid.UUID]model.Discount
}

func newFakeDiscounts() *fakeDiscounts {
	return &fakeDiscounts{items: map[uuid.UUID]model.Discount{}}
}

func (f *fakeDiscounts) Create(d *model.Discount) error {
	ensureID(&d.BaseModel)
	f.mu.Lock()
	f.items[d.ID] = *d
	f.mu.Unlock()
	return nil
}

func (f *fakeDiscounts) FindAll() ([]model.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Discount
	for _, d := range f.items {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDiscounts) FindAllByName() ([]model.Discount, error) { return f.FindAll() }

func (f *fakeDiscounts) FindByID(id uuid.UUID) (*model.Discount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (f *fakeDiscounts) Update(d *model.Discount) error {
	f.mu.Lock()
	f.items[d.ID] = *d
	f.mu.Unlock()
	return nil
}

func (f *fakeDiscounts) Delete(id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

// ---- users / identities ----

type fakeUsers struct {
	items     map[uuid.UUID]model.User
	createErr error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{items: map[uuid.UUID]model.User{}} }

func (f *fakeUsers) FindByID(id uuid.UUID) (*model.User, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Create(u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	ensureID(&u.BaseModel)
	f.items[u.ID] = *u
	return nil
}

func (f *fakeUsers) Update(u *model.User) error {
	f.items[u.ID] = *u
	return nil
}

func (f *fakeUsers) Delete(id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeUsers) FindAll() ([]model.User, error) {
	var out []model.User
	for _, u := range f.items {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) CountActive() (int64, error) {
	var n int64
	for _, u := range f.items {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

type fakeIdentities struct {
	items     map[uuid.UUID]model.AuthIdentity
	deleteErr error
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{items: map[uuid.UUID]model.AuthIdentity{}}
}

func (f *fakeIdentities) Create(a *model.AuthIdentity) error {
	for _, existing := range f.items {
		if strings.EqualFold(existing.Email, a.Email) {
			return errUnique
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.items[a.ID] = *a
	return nil
}

func (f *fakeIdentities) FindByEmail(email string) (*model.AuthIdentity, error) {
	for _, a := range f.items {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeIdentities) FindByID(id uuid.UUID) (*model.AuthIdentity, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &a, nil
}

func (f *fakeIdentities) FindAll() ([]model.AuthIdentity, error) {
	var out []model.AuthIdentity
	for _, a := range f.items {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeIdentities) Delete(id uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.items, id)
	return nil
}

func (f *fakeIdentities) UpdatePassword(id uuid.UUID, hashed string) error {
	a := f.items[id]
	a.Password = hashed
	f.items[id] = a
	return nil
}

func (f *fakeIdentities) UpdateTokenVersion(id uuid.UUID, version string) error {
	a, ok := f.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.TokenVersion = version
	f.items[id] = a
	return nil
}

// ---- ledger ----

// fakeLedger shares the product map with fakeProducts so stock writes are visible.
type fakeLedger struct {
	mu           sync.Mutex
	products     *fakeProducts
	transactions []model.Transaction
	items        []model.TransactionItem
	failItems    error

	topProducts []repository.TopProduct
	categories  []repository.CategoryRevenue
	unitsSold   int64
	unitsRange  [2]time.Time
}

func newFakeLedger(products *fakeProducts) *fakeLedger {
	return &fakeLedger{products: products}
}

func (f *fakeLedger) InsertTransaction(_ context.Context, header *model.Transaction) error {
	ensureID(&header.BaseModel)
	f.mu.Lock()
	f.transactions = append(f.transactions, *header)
	f.mu.Unlock()
	return nil
}

func (f *fakeLedger) InsertItems(_ context.Context, items []model.TransactionItem) error {
	if f.failItems != nil {
		return f.failItems
	}
	f.mu.Lock()
	f.items = append(f.items, items...)
	f.mu.Unlock()
	return nil
}

func (f *fakeLedger) SetStock(_ context.Context, productID uuid.UUID, stock int) error {
	f.products.mu.Lock()
	defer f.products.mu.Unlock()
	p := f.products.items[productID]
	p.Stock = stock
	f.products.items[productID] = p
	return nil
}

func (f *fakeLedger) CommitAtomic(_ context.Context, header *model.Transaction, items []model.TransactionItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products.mu.Lock()
	defer f.products.mu.Unlock()

	if header.IdempotencyKey != nil {
		for _, t := range f.transactions {
			if sameKey(t, header.UserID, *header.IdempotencyKey) {
				return errUnique
			}
		}
	}

	next := map[uuid.UUID]int{}
	for _, it := range items {
		p, ok := f.products.items[it.ProductID]
		if !ok {
			return errForeignKey
		}
		stock, seen := next[it.ProductID]
		if !seen {
			stock = p.Stock
		}
		if stock < it.Quantity {
			return repository.ErrStockConflict
		}
		next[it.ProductID] = stock - it.Quantity
	}

	ensureID(&header.BaseModel)
	for i := range items {
		ensureID(&items[i].BaseModel)
		items[i].TransactionID = header.ID
	}
	for id, stock := range next {
		p := f.products.items[id]
		p.Stock = stock
		f.products.items[id] = p
	}
	f.transactions = append(f.transactions, *header)
	f.items = append(f.items, items...)
	return nil
}

// sameKey mirrors the (user_id, idempotency_key) unique index.
func sameKey(t model.Transaction, userID *uuid.UUID, key string) bool {
	return t.IdempotencyKey != nil && *t.IdempotencyKey == key &&
		t.UserID != nil && userID != nil && *t.UserID == *userID
}

func (f *fakeLedger) FindByIdempotencyKey(_ context.Context, userID uuid.UUID, key string) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transactions {
		if sameKey(t, &userID, key) {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedger) FindAll(day *time.Time) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Transaction
	for _, t := range f.transactions {
		if day != nil {
			start := startOfDay(*day)
			if t.CreatedAt.Before(start) || !t.CreatedAt.Before(start.AddDate(0, 0, 1)) {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeLedger) FindByID(id uuid.UUID) (*model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.transactions {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedger) FindSince(since time.Time) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Transaction
	for _, t := range f.transactions {
		if !t.CreatedAt.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeLedger) RecentSince(since time.Time, limit int) ([]repository.RecentTransaction, error) {
	recent, _ := f.FindSince(since)
	var out []repository.RecentTransaction
	for i := len(recent) - 1; i >= 0 && len(out) < limit; i-- {
		t := recent[i]
		count := 0
		for _, it := range f.items {
			if it.TransactionID == t.ID {
				count++
			}
		}
		out = append(out, repository.RecentTransaction{ID: t.ID, CreatedAt: t.CreatedAt, TotalPrice: t.TotalPrice, ItemsCount: count})
	}
	return out, nil
}

func (f *fakeLedger) Summary(since *time.Time) (*repository.LedgerSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &repository.LedgerSummary{Revenue: decimal.Zero}
	for _, t := range f.transactions {
		if since != nil && t.CreatedAt.Before(*since) {
			continue
		}
		s.Count++
		s.Revenue = s.Revenue.Add(t.TotalPrice)
	}
	return s, nil
}

func (f *fakeLedger) TopProducts(limit int) ([]repository.TopProduct, error) {
	if len(f.topProducts) > limit {
		return f.topProducts[:limit], nil
	}
	return f.topProducts, nil
}

func (f *fakeLedger) CategoryRevenue() ([]repository.CategoryRevenue, error) {
	return f.categories, nil
}

func (f *fakeLedger) TotalUnitsSold(start, end time.Time) (int64, error) {
	f.unitsRange = [2]time.Time{start, end}
	return f.unitsSold, nil
}

// ---- notifications ----

type sentMessage struct {
	Type string
	Data interface{}
}

type fakeHub struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (h *fakeHub) Send(msgType string, data interface{}) {
	h.mu.Lock()
	h.sent = append(h.sent, sentMessage{msgType, data})
	h.mu.Unlock()
}

func (h *fakeHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, m := range h.sent {
		out = append(out, m.Type)
	}
	return out
}

type fakePublisher struct {
	mu           sync.Mutex
	transactions []event.TransactionCreated
	stock        []event.StockChanged
	err          error
}

func (p *fakePublisher) TransactionCreated(e event.TransactionCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transactions = append(p.transactions, e)
	return p.err
}

func (p *fakePublisher) StockChanged(e event.StockChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stock = append(p.stock, e)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }
