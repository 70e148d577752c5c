// Package memstore содержит хранилища в памяти процесса с теми же контрактами, что и PostgreSQL-репозиторий.
// Используется, когда адрес БД не задан, и в тестах.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mmeshcher/hotel-reservation-system/internal/model"
	"github.com/mmeshcher/hotel-reservation-system/internal/repository"
)

// keyedMutex выдаёт отдельный мьютекс на каждый ключ.
// Запись удаляется, когда ключ больше никто не держит и не ждёт.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// LoyaltyStore хранит счета лояльности. Изменения одного пользователя сериализуются.
type LoyaltyStore struct {
	keys keyedMutex

	mu       sync.RWMutex
	nextID   int64
	accounts map[string]model.LoyaltyAccount
}

// NewLoyaltyStore создаёт пустое хранилище счетов лояльности.
func NewLoyaltyStore() *LoyaltyStore {
	return &LoyaltyStore{accounts: make(map[string]model.LoyaltyAccount)}
}

// Close реализует интерфейс хранилища.
func (s *LoyaltyStore) Close() error { return nil }

// CreateLoyalty регистрирует счёт.
func (s *LoyaltyStore) CreateLoyalty(ctx context.Context, account model.LoyaltyAccount) (*model.LoyaltyAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Username]; ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrLoyaltyExists, account.Username)
	}
	s.nextID++
	account.ID = s.nextID
	s.accounts[account.Username] = account
	return &account, nil
}

// GetLoyalty возвращает копию счёта.
func (s *LoyaltyStore) GetLoyalty(ctx context.Context, username string) (*model.LoyaltyAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[username]
	if !ok {
		return nil, repository.ErrLoyaltyNotFound
	}
	return &a, nil
}

// UpdateLoyalty атомарно читает и изменяет счёт пользователя.
func (s *LoyaltyStore) UpdateLoyalty(ctx context.Context, username string, fn func(*model.LoyaltyAccount) error) (*model.LoyaltyAccount, error) {
	unlock := s.keys.lock(username)
	defer unlock()

	a, err := s.GetLoyalty(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := fn(a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.accounts[username] = *a
	s.mu.Unlock()

	return a, nil
}

// ReservationStore хранит каталог отелей и бронирования.
type ReservationStore struct {
	keys keyedMutex

	mu           sync.RWMutex
	nextHotelID  int64
	nextID       int64
	hotels       map[int64]model.Hotel
	reservations map[string]model.Reservation
}

// NewReservationStore создаёт пустое хранилище бронирований.
func NewReservationStore() *ReservationStore {
	return &ReservationStore{
		hotels:       make(map[int64]model.Hotel),
		reservations: make(map[string]model.Reservation),
	}
}

// Close реализует интерфейс хранилища.
func (s *ReservationStore) Close() error { return nil }

// CreateHotel добавляет отель.
func (s *ReservationStore) CreateHotel(ctx context.Context, h *model.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextHotelID++
	h.ID = s.nextHotelID
	s.hotels[h.ID] = *h
	return nil
}

// ListHotels возвращает страницу отелей в порядке создания.
func (s *ReservationStore) ListHotels(ctx context.Context, page, perPage int) ([]model.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]model.Hotel, 0, len(s.hotels))
	for _, h := range s.hotels {
		all = append(all, h)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, perPage), nil
}

// GetHotelByUID возвращает отель по UID.
func (s *ReservationStore) GetHotelByUID(ctx context.Context, hotelUID string) (*model.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.hotels {
		if h.HotelUID == hotelUID {
			return &h, nil
		}
	}
	return nil, repository.ErrHotelNotFound
}

// GetHotelByID возвращает отель по идентификатору.
func (s *ReservationStore) GetHotelByID(ctx context.Context, id int64) (*model.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.hotels[id]
	if !ok {
		return nil, repository.ErrHotelNotFound
	}
	return &h, nil
}

// DeleteHotel удаляет отель, если на него не ссылаются бронирования.
func (s *ReservationStore) DeleteHotel(ctx context.Context, hotelUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, h := range s.hotels {
		if h.HotelUID != hotelUID {
			continue
		}
		for _, r := range s.reservations {
			if r.HotelID == id {
				return fmt.Errorf("%w: %s", repository.ErrHotelInUse, hotelUID)
			}
		}
		delete(s.hotels, id)
		return nil
	}
	return repository.ErrHotelNotFound
}

// CreateReservation сохраняет бронирование.
func (s *ReservationStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hotels[r.HotelID]; !ok {
		return fmt.Errorf("%w: %d", repository.ErrHotelNotFound, r.HotelID)
	}
	s.nextID++
	r.ID = s.nextID
	stored := *r
	stored.Hotel = nil
	s.reservations[r.ReservationUID] = stored
	return nil
}

// GetReservation возвращает бронирование вместе с отелем.
func (s *ReservationStore) GetReservation(ctx context.Context, reservationUID string) (*model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reservations[reservationUID]
	if !ok {
		return nil, repository.ErrReservationNotFound
	}
	return s.withHotel(r), nil
}

// ListReservationsByUser возвращает бронирования пользователя в порядке создания.
func (s *ReservationStore) ListReservationsByUser(ctx context.Context, username string) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []model.Reservation
	for _, r := range s.reservations {
		if r.Username == username {
			res = append(res, *s.withHotel(r))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// UpdateReservation атомарно читает и изменяет бронирование.
func (s *ReservationStore) UpdateReservation(ctx context.Context, reservationUID string, fn func(*model.Reservation) error) (*model.Reservation, error) {
	unlock := s.keys.lock(reservationUID)
	defer unlock()

	r, err := s.GetReservation(ctx, reservationUID)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}

	s.mu.Lock()
	stored := s.reservations[reservationUID]
	stored.Status = r.Status
	s.reservations[reservationUID] = stored
	s.mu.Unlock()

	return r, nil
}

// CountPaidReservations возвращает число оплаченных бронирований пользователя.
func (s *ReservationStore) CountPaidReservations(ctx context.Context, username string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.reservations {
		if r.Username == username && r.Status == model.ReservationStatusPaid {
			n++
		}
	}
	return n, nil
}

// ListReservationUsers возвращает отсортированный список пользователей с бронированиями.
func (s *ReservationStore) ListReservationUsers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var users []string
	for _, r := range s.reservations {
		if _, ok := seen[r.Username]; ok {
			continue
		}
		seen[r.Username] = struct{}{}
		users = append(users, r.Username)
	}
	sort.Strings(users)
	return users, nil
}

func (s *ReservationStore) withHotel(r model.Reservation) *model.Reservation {
	if h, ok := s.hotels[r.HotelID]; ok {
		r.Hotel = &h
	}
	return &r
}

// PaymentStore хранит оплаты.
type PaymentStore struct {
	mu       sync.Mutex
	nextID   int64
	payments map[string]model.Payment
}

// NewPaymentStore создаёт пустое хранилище оплат.
func NewPaymentStore() *PaymentStore {
	return &PaymentStore{payments: make(map[string]model.Payment)}
}

// Close реализует интерфейс хранилища.
func (s *PaymentStore) Close() error { return nil }

// CreatePayment сохраняет оплату.
func (s *PaymentStore) CreatePayment(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	s.payments[p.PaymentUID] = *p
	return nil
}

// GetPayment возвращает оплату по UID.
func (s *PaymentStore) GetPayment(ctx context.Context, paymentUID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentUID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	return &p, nil
}

// ListPayments возвращает страницу оплат в порядке создания.
func (s *PaymentStore) ListPayments(ctx context.Context, page, perPage int) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]model.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, page, perPage), nil
}

// DeletePayment удаляет оплату и возвращает удалённую запись.
func (s *PaymentStore) DeletePayment(ctx context.Context, paymentUID string) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentUID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	delete(s.payments, paymentUID)
	return &p, nil
}

func paginate[T any](items []T, page, perPage int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if perPage <= 0 || start >= len(items) {
		return []T{}
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
