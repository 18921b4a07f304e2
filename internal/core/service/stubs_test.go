package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/campuskart/marketplace-api/internal/core/domain"
	"github.com/campuskart/marketplace-api/internal/core/ports"
)

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Roles = append(domain.RoleSet(nil), u.Roles...)
	clone.RefreshCredentials = append([]domain.RefreshCredential(nil), u.RefreshCredentials...)
	return &clone
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	next  int

	appendErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.next++
	copy := cloneUser(user)
	copy.ID = "user-" + strconv.Itoa(r.next)
	r.users[copy.ID] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByVerificationTokenHash(_ context.Context, hash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if hash != "" && u.VerificationTokenHash == hash {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrVerificationInvalid
}

func (r *stubUserRepo) FindByResetTokenHash(_ context.Context, hash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if hash != "" && u.ResetTokenHash == hash && u.ResetTokenExpires.After(time.Now()) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrResetInvalid
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, update ports.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.Whatsapp != nil {
		u.Whatsapp = *update.Whatsapp
	}
	if update.Hostel != nil {
		u.Hostel = *update.Hostel
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateRoles(_ context.Context, id string, roles domain.RoleSet) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Roles = append(domain.RoleSet(nil), roles...)
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetPassword(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = ""
	u.ResetTokenExpires = time.Time{}
	return nil
}

func (r *stubUserRepo) SetVerificationToken(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.VerificationTokenHash = hash
	return nil
}

func (r *stubUserRepo) SetResetToken(_ context.Context, id, hash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetTokenHash = hash
	u.ResetTokenExpires = expires
	return nil
}

func (r *stubUserRepo) MarkVerified(_ context.Context, id string, domainVerified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.IsVerified = true
	u.DomainVerified = domainVerified
	u.VerificationTokenHash = ""
	return nil
}

func (r *stubUserRepo) AppendRefreshCredential(_ context.Context, id string, cred domain.RefreshCredential, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshCredentials = append(u.RefreshCredentials, cred)
	if len(u.RefreshCredentials) > max {
		u.RefreshCredentials = u.RefreshCredentials[len(u.RefreshCredentials)-max:]
	}
	return nil
}

func (r *stubUserRepo) RemoveRefreshCredential(_ context.Context, id, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	kept := u.RefreshCredentials[:0]
	for _, c := range u.RefreshCredentials {
		if c.TokenHash != tokenHash {
			kept = append(kept, c)
		}
	}
	u.RefreshCredentials = kept
	return nil
}

func (r *stubUserRepo) ClearRefreshCredentials(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshCredentials = nil
	return nil
}

func (r *stubUserRepo) List(_ context.Context, filter ports.UserListFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if filter.Role != "" && !u.Roles.Has(filter.Role) {
			continue
		}
		if filter.Search != "" && !strings.Contains(u.Username, filter.Search) &&
			!strings.Contains(u.Name, filter.Search) && !strings.Contains(u.Email, filter.Search) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, int64(len(out)), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) credentials(id string) []domain.RefreshCredential {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	return append([]domain.RefreshCredential(nil), u.RefreshCredentials...)
}

func cloneListing(l *domain.Listing) *domain.Listing {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}

type stubListingRepo struct {
	mu       sync.Mutex
	listings map[string]*domain.Listing
	next     int
}

func newStubListingRepo() *stubListingRepo {
	return &stubListingRepo{listings: make(map[string]*domain.Listing)}
}

func (r *stubListingRepo) Create(_ context.Context, l *domain.Listing) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	copy := cloneListing(l)
	copy.ID = "listing-" + strconv.Itoa(r.next)
	r.listings[copy.ID] = copy
	return cloneListing(copy), nil
}

func (r *stubListingRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return cloneListing(l), nil
}

func (r *stubListingRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if l.OwnerID == ownerID {
			out = append(out, cloneListing(l))
		}
	}
	return out, nil
}

func (r *stubListingRepo) ListAvailable(_ context.Context) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.listings {
		if l.IsAvailable {
			out = append(out, cloneListing(l))
		}
	}
	return out, nil
}

// UpdateStatus mirrors the conditional-write contract: the status must still
// be one of from when the write lands, or the caller gets ErrConflict.
func (r *stubListingRepo) UpdateStatus(_ context.Context, id string, from []domain.ListingStatus, to domain.ListingStatus, reservedFor string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	matched := false
	for _, s := range from {
		if l.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return nil, domain.ErrConflict
	}
	l.SetStatus(to)
	if to == domain.ListingReserved {
		l.ReservedFor = reservedFor
	} else {
		l.ReservedFor = ""
	}
	l.UpdatedAt = time.Now()
	return cloneListing(l), nil
}

func (r *stubListingRepo) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return domain.ErrListingNotFound
	}
	l.Views++
	return nil
}

func (r *stubListingRepo) seed(l *domain.Listing) *domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	copy := cloneListing(l)
	if copy.ID == "" {
		copy.ID = "listing-" + strconv.Itoa(r.next)
	}
	copy.IsAvailable = copy.Status.Available()
	r.listings[copy.ID] = copy
	return cloneListing(copy)
}

type stubOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	next   int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]domain.OrderItem(nil), o.Items...)
	return &clone
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	copy := cloneOrder(o)
	copy.ID = "order-" + strconv.Itoa(r.next)
	r.orders[copy.ID] = copy
	return cloneOrder(copy), nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *stubOrderRepo) ListByBuyer(_ context.Context, buyerID string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *stubOrderRepo) ListBySeller(_ context.Context, sellerID string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.SellerID == sellerID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id string, delivery domain.DeliveryStatus, payment domain.PaymentStatus) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.DeliveryStatus = delivery
	o.PaymentStatus = payment
	o.UpdatedAt = time.Now()
	return cloneOrder(o), nil
}

type recordedActivity struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (a *recordedActivity) Record(entry domain.ActivityEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *recordedActivity) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubMailer struct {
	mu   sync.Mutex
	sent []string // message bodies in send order
	err  error
}

func (m *stubMailer) Send(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, body)
	return nil
}

// lastToken extracts the token from the most recent mail body, which has the
// form "<label>: <token>".
func (m *stubMailer) lastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	body := m.sent[len(m.sent)-1]
	idx := strings.LastIndex(body, ": ")
	if idx < 0 {
		return ""
	}
	return body[idx+2:]
}

type stubViewTracker struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newStubViewTracker() *stubViewTracker {
	return &stubViewTracker{seen: make(map[string]bool)}
}

func (v *stubViewTracker) FirstView(_ context.Context, listingID, viewerKey string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return false, v.err
	}
	key := listingID + ":" + viewerKey
	if v.seen[key] {
		return false, nil
	}
	v.seen[key] = true
	return true, nil
}
