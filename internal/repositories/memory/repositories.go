package memory

import (
	"context"
	"sort"
	"time"

	apperrors "escrow/internal/errors"
	"escrow/internal/models"
)

type walletRepository struct{ binding }

func (r *walletRepository) find(st *state, userID uint) (*models.Wallet, bool) {
	for _, w := range st.wallets {
		if w.UserID == userID {
			w := w
			return &w, true
		}
	}
	return nil, false
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.do(func(st *state) error {
		w, ok := r.find(st, userID)
		if !ok {
			return apperrors.ErrWalletNotFound
		}
		out = w
		return nil
	})
	return out, err
}

func (r *walletRepository) LockByUserID(ctx context.Context, userID uint) (*models.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *walletRepository) EnsureLocked(ctx context.Context, userID uint) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.do(func(st *state) error {
		if w, ok := r.find(st, userID); ok {
			out = w
			return nil
		}
		now := r.store.now()
		w := models.Wallet{
			ID:        st.next("wallets"),
			UserID:    userID,
			Balance:   models.ZeroMoney(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		st.wallets[w.ID] = w
		out = &w
		return nil
	})
	return out, err
}

func (r *walletRepository) UpdateBalance(ctx context.Context, walletID uint, balance models.Money) error {
	return r.do(func(st *state) error {
		w, ok := st.wallets[walletID]
		if !ok {
			return apperrors.ErrWalletNotFound
		}
		w.Balance = balance
		w.UpdatedAt = r.store.now()
		st.wallets[walletID] = w
		return nil
	})
}

func (r *walletRepository) GetEscrow(ctx context.Context) (*models.EscrowWallet, error) {
	var out *models.EscrowWallet
	err := r.do(func(st *state) error {
		if st.escrow == nil {
			return apperrors.ErrWalletNotFound
		}
		e := *st.escrow
		out = &e
		return nil
	})
	return out, err
}

func (r *walletRepository) EnsureEscrowLocked(ctx context.Context) (*models.EscrowWallet, error) {
	var out *models.EscrowWallet
	err := r.do(func(st *state) error {
		if st.escrow == nil {
			now := r.store.now()
			st.escrow = &models.EscrowWallet{
				ID:        models.EscrowWalletID,
				Balance:   models.ZeroMoney(),
				CreatedAt: now,
				UpdatedAt: now,
			}
		}
		e := *st.escrow
		out = &e
		return nil
	})
	return out, err
}

func (r *walletRepository) UpdateEscrowBalance(ctx context.Context, balance models.Money) error {
	return r.do(func(st *state) error {
		if st.escrow == nil {
			return apperrors.ErrWalletNotFound
		}
		st.escrow.Balance = balance
		st.escrow.UpdatedAt = r.store.now()
		return nil
	})
}

type escrowRepository struct{ binding }

func milestonesOf(st *state, transactionID uint) []models.Milestone {
	var out []models.Milestone
	for _, id := range sortedIDs(st.milestones) {
		if m := st.milestones[id]; m.TransactionID == transactionID {
			out = append(out, m)
		}
	}
	return out
}

func (r *escrowRepository) Create(ctx context.Context, txn *models.EscrowTransaction) error {
	return r.do(func(st *state) error {
		now := r.store.now()
		txn.ID = st.next("escrow_transactions")
		txn.CreatedAt = now
		txn.UpdatedAt = now
		if txn.Status == "" {
			txn.Status = models.StatusPendingFunding
		}
		for i := range txn.Milestones {
			m := &txn.Milestones[i]
			m.ID = st.next("milestones")
			m.TransactionID = txn.ID
			m.CreatedAt = now
			m.UpdatedAt = now
			if m.Status == "" {
				m.Status = models.MilestonePending
			}
			st.milestones[m.ID] = *m
		}
		row := *txn
		row.Milestones = nil
		st.transactions[txn.ID] = row
		return nil
	})
}

func (r *escrowRepository) GetByID(ctx context.Context, id uint) (*models.EscrowTransaction, error) {
	var out *models.EscrowTransaction
	err := r.do(func(st *state) error {
		txn, ok := st.transactions[id]
		if !ok {
			return apperrors.ErrTransactionNotFound
		}
		txn.Milestones = milestonesOf(st, id)
		out = &txn
		return nil
	})
	return out, err
}

func (r *escrowRepository) LockByID(ctx context.Context, id uint) (*models.EscrowTransaction, error) {
	var out *models.EscrowTransaction
	err := r.do(func(st *state) error {
		txn, ok := st.transactions[id]
		if !ok {
			return apperrors.ErrTransactionNotFound
		}
		out = &txn
		return nil
	})
	return out, err
}

func (r *escrowRepository) UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus) error {
	return r.do(func(st *state) error {
		txn, ok := st.transactions[id]
		if !ok {
			return apperrors.ErrTransactionNotFound
		}
		txn.Status = status
		txn.UpdatedAt = r.store.now()
		st.transactions[id] = txn
		return nil
	})
}

func (r *escrowRepository) ListByParty(ctx context.Context, role models.PartyRole, userID uint, limit, offset int) ([]models.EscrowTransaction, int64, error) {
	var out []models.EscrowTransaction
	var total int64
	err := r.do(func(st *state) error {
		var matched []models.EscrowTransaction
		for _, txn := range st.transactions {
			var ok bool
			switch role {
			case models.RoleBuyer:
				ok = txn.IsBuyer(userID)
			case models.RoleSeller:
				ok = txn.IsSeller(userID)
			default:
				ok = txn.IsParty(userID)
			}
			if ok {
				txn.Milestones = milestonesOf(st, txn.ID)
				matched = append(matched, txn)
			}
		}
		sort.Slice(matched, func(i, j int) bool {
			if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].ID > matched[j].ID
			}
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		total = int64(len(matched))
		out = page(matched, limit, offset)
		return nil
	})
	return out, total, err
}

func (r *escrowRepository) GetMilestone(ctx context.Context, id uint) (*models.Milestone, error) {
	var out *models.Milestone
	err := r.do(func(st *state) error {
		m, ok := st.milestones[id]
		if !ok {
			return apperrors.ErrMilestoneNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *escrowRepository) ListMilestones(ctx context.Context, transactionID uint) ([]models.Milestone, error) {
	var out []models.Milestone
	err := r.do(func(st *state) error {
		out = milestonesOf(st, transactionID)
		return nil
	})
	return out, err
}

func (r *escrowRepository) LockMilestones(ctx context.Context, transactionID uint) ([]models.Milestone, error) {
	return r.ListMilestones(ctx, transactionID)
}

func (r *escrowRepository) UpdateMilestone(ctx context.Context, m *models.Milestone) error {
	return r.do(func(st *state) error {
		row, ok := st.milestones[m.ID]
		if !ok {
			return apperrors.ErrMilestoneNotFound
		}
		row.Status = m.Status
		row.SubmissionDetails = m.SubmissionDetails
		row.UpdatedAt = r.store.now()
		st.milestones[m.ID] = row
		return nil
	})
}

type paymentRepository struct{ binding }

func (r *paymentRepository) Create(ctx context.Context, p *models.PaymentRecord) error {
	return r.do(func(st *state) error {
		p.ID = st.next("payment_records")
		p.CreatedAt = r.store.now()
		st.payments[p.ID] = *p
		return nil
	})
}

func (r *paymentRepository) Complete(ctx context.Context, id uint, completedAt time.Time) error {
	return r.do(func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return apperrors.ErrInternal.WithMessage("payment record %d not found", id)
		}
		p.Status = models.PaymentCompleted
		p.CompletedAt = &completedAt
		st.payments[id] = p
		return nil
	})
}

func (r *paymentRepository) ListByTransaction(ctx context.Context, transactionID uint) ([]models.PaymentRecord, error) {
	var out []models.PaymentRecord
	err := r.do(func(st *state) error {
		for _, id := range sortedIDs(st.payments) {
			if p := st.payments[id]; p.EscrowTransactionID == transactionID {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

type reviewRepository struct{ binding }

func hasReview(st *state, transactionID, reviewerID uint) bool {
	for _, rv := range st.reviews {
		if rv.TransactionID == transactionID && rv.ReviewerID != nil && *rv.ReviewerID == reviewerID {
			return true
		}
	}
	return false
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return r.do(func(st *state) error {
		if review.ReviewerID != nil && hasReview(st, review.TransactionID, *review.ReviewerID) {
			return apperrors.ErrDuplicateReview
		}
		review.ID = st.next("reviews")
		review.CreatedAt = r.store.now()
		st.reviews[review.ID] = *review
		return nil
	})
}

func (r *reviewRepository) ExistsForReviewer(ctx context.Context, transactionID, reviewerID uint) (bool, error) {
	var exists bool
	err := r.do(func(st *state) error {
		exists = hasReview(st, transactionID, reviewerID)
		return nil
	})
	return exists, err
}

func (r *reviewRepository) ListByTransaction(ctx context.Context, transactionID uint) ([]models.Review, error) {
	var out []models.Review
	err := r.do(func(st *state) error {
		for _, id := range sortedIDs(st.reviews) {
			if rv := st.reviews[id]; rv.TransactionID == transactionID {
				out = append(out, rv)
			}
		}
		return nil
	})
	return out, err
}

type outboxRepository struct{ binding }

func (r *outboxRepository) Append(ctx context.Context, ev *models.OutboxEvent) error {
	return r.do(func(st *state) error {
		ev.ID = st.next("outbox_events")
		ev.CreatedAt = r.store.now()
		st.outbox[ev.ID] = *ev
		return nil
	})
}

func (r *outboxRepository) FetchPending(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	err := r.do(func(st *state) error {
		for _, id := range sortedIDs(st.outbox) {
			ev := st.outbox[id]
			if ev.DispatchedAt == nil && ev.Attempts < maxAttempts {
				out = append(out, ev)
			}
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *outboxRepository) MarkDispatched(ctx context.Context, id uint, at time.Time) error {
	return r.do(func(st *state) error {
		ev, ok := st.outbox[id]
		if !ok {
			return nil
		}
		ev.DispatchedAt = &at
		ev.Attempts++
		ev.LastError = ""
		st.outbox[id] = ev
		return nil
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uint, reason string) error {
	return r.do(func(st *state) error {
		ev, ok := st.outbox[id]
		if !ok {
			return nil
		}
		ev.Attempts++
		ev.LastError = reason
		st.outbox[id] = ev
		return nil
	})
}

type notificationRepository struct{ binding }

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.do(func(st *state) error {
		n.ID = st.next("notifications")
		n.CreatedAt = r.store.now()
		st.notifications[n.ID] = *n
		return nil
	})
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, int64, error) {
	var out []models.Notification
	var total int64
	err := r.do(func(st *state) error {
		ids := sortedIDs(st.notifications)
		var matched []models.Notification
		for i := len(ids) - 1; i >= 0; i-- {
			if n := st.notifications[ids[i]]; n.RecipientID == recipientID {
				matched = append(matched, n)
			}
		}
		total = int64(len(matched))
		out = page(matched, limit, offset)
		return nil
	})
	return out, total, err
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.do(func(st *state) error {
		for _, n := range st.notifications {
			if n.RecipientID == recipientID && !n.IsRead {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	var out *models.Notification
	err := r.do(func(st *state) error {
		n, ok := st.notifications[id]
		if !ok || n.RecipientID != recipientID {
			return apperrors.ErrNotificationNotFound
		}
		n.IsRead = true
		st.notifications[id] = n
		out = &n
		return nil
	})
	return out, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	var updated int64
	err := r.do(func(st *state) error {
		for id, n := range st.notifications {
			if n.RecipientID == recipientID && !n.IsRead {
				n.IsRead = true
				st.notifications[id] = n
				updated++
			}
		}
		return nil
	})
	return updated, err
}

type userRepository struct{ binding }

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == user.Email {
				return apperrors.ErrValidationFailed.WithMessage("email %s already registered", user.Email)
			}
		}
		now := r.store.now()
		user.ID = st.next("users")
		user.CreatedAt = now
		user.UpdatedAt = now
		if user.Role == "" {
			user.Role = "user"
		}
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var out *models.User
	err := r.do(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.do(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return apperrors.ErrUserNotFound
	})
	return out, err
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
