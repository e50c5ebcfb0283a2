// Package lifecycle содержит движок жизненного цикла платного доступа
// к каналу: машины состояний платежа и подписки, периодическую проверку
// истечений и протокол выдачи приглашений.
//
// Движок владеет переходами состояний; хранилище выполняет их атомарно,
// а шлюз канала и уведомления вызываются строго после фиксации транзакции.
// Сбой доставки никогда не откатывает уже принятое решение.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/events"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/metrics"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/storage/repository"
)

// Типизированные ошибки движка. Возвращаются вызывающей стороне для
// пользовательских сообщений и не ретраятся автоматически.
var (
	ErrNoPlanSelected       = errors.New("no plan selected")
	ErrUnknownPlan          = errors.New("unknown plan")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrAlreadyDecided       = errors.New("payment already decided")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrUserNotFound         = errors.New("user not found")
)

// Store определяет транзакционное хранилище движка. Методы DecidePayment,
// ExtendActiveSubscription и ExpireSubscription атомарны и сериализуются
// по затронутым строкам.
type Store interface {
	UpsertUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	SetSelectedPlan(ctx context.Context, userID int64, planID string) error
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	SeedPlans(ctx context.Context, plans []models.Plan) error
	CreatePayment(ctx context.Context, payment models.Payment) (int64, error)
	GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error)
	DecidePayment(ctx context.Context, paymentID, adminID int64, approve bool, now time.Time, durationDays int) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userID int64) (*models.Subscription, error)
	ExtendActiveSubscription(ctx context.Context, userID int64, delta time.Duration) (*models.Subscription, error)
	ExpireSubscription(ctx context.Context, subscriptionID, userID int64) (bool, error)
	ListExpiring(ctx context.Context, now time.Time) ([]*models.Subscription, error)
}

// ChannelGateway выдает приглашения в закрытый канал и убирает участников.
// RemoveMember идемпотентен: удаление отсутствующего участника не ошибка.
type ChannelGateway interface {
	CreateInvite(ctx context.Context, ttl time.Duration, maxUses int) (string, error)
	RemoveMember(ctx context.Context, userID int64) error
}

// Notifier доставляет сообщения пользователям и администраторам.
// Доставка best-effort, без гарантий.
type Notifier interface {
	Notify(ctx context.Context, identity int64, text string) error
	NotifyWithAttachment(ctx context.Context, identity int64, text, attachmentRef string) error
}

// AuthPolicy проверяет привилегированные identity.
type AuthPolicy interface {
	IsAdmin(identity int64) bool
	Admins() []int64
}

// EventPublisher публикует события жизненного цикла в канал наблюдаемости.
type EventPublisher interface {
	Publish(event models.LifecycleEvent) error
}

// Cache описывает методы для кэширования каталога планов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Config задает параметры выдачи приглашений.
type Config struct {
	InviteTTL     time.Duration
	InviteMaxUses int
}

const plansCacheKey = "plans:catalog"

// Стартовый каталог планов, повторяющий исходный прайс канала.
var seedPlans = []models.Plan{
	{ID: "month", Name: "Month", DurationDays: 30, Price: 200.0},
	{ID: "2weeks", Name: "Two weeks", DurationDays: 14, Price: 140.0},
}

// Service реализует операции движка жизненного цикла.
type Service struct {
	store     Store
	gateway   ChannelGateway
	notifier  Notifier
	auth      AuthPolicy
	publisher EventPublisher
	cache     Cache
	metrics   *metrics.Metrics
	log       *slog.Logger
	cfg       Config

	now func() time.Time
}

// New создает новый экземпляр Service.
func New(store Store, gateway ChannelGateway, notifier Notifier, auth AuthPolicy,
	publisher EventPublisher, cache Cache, m *metrics.Metrics, log *slog.Logger, cfg Config) *Service {
	return &Service{
		store:     store,
		gateway:   gateway,
		notifier:  notifier,
		auth:      auth,
		publisher: publisher,
		cache:     cache,
		metrics:   m,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Bootstrap заполняет каталог планов стартовым набором, если он пуст.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.store.SeedPlans(ctx, seedPlans); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}
	return nil
}

// RegisterUser сохраняет пользователя при первом контакте. Повторный вызов
// для известного пользователя — безопасный no-op.
func (s *Service) RegisterUser(ctx context.Context, userID int64, displayName string) error {
	user := models.User{
		UserID:      userID,
		UID:         uuid.NewString(),
		DisplayName: displayName,
		Status:      models.UserStatusPending,
	}
	if err := s.store.UpsertUser(ctx, user); err != nil {
		return err
	}
	s.log.Info("registered user", slog.Int64("user_id", userID))
	return nil
}

// ListPlans возвращает каталог планов, используя кеш или хранилище.
func (s *Service) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	var result []*models.Plan
	found, err := s.cache.Get(ctx, plansCacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read plans from cache", sl.Err(err))
	}
	if found {
		return result, nil
	}

	result, err = s.store.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, plansCacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache plans", sl.Err(err))
	}
	return result, nil
}

// SelectPlan запоминает выбранный план пользователя. Выбор можно менять
// до оплаты сколько угодно раз; платежей он не создает.
func (s *Service) SelectPlan(ctx context.Context, userID int64, planID string) (*models.Plan, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownPlan
		}
		return nil, err
	}

	if err := s.store.SetSelectedPlan(ctx, userID, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	s.log.Info("plan selected",
		slog.Int64("user_id", userID), slog.String("plan_id", planID))
	return plan, nil
}

// SubmitReceipt создает платёж в статусе pending по чеку пользователя
// и уведомляет всех администраторов, прикладывая чек. Сумма копируется
// из текущей цены выбранного плана.
func (s *Service) SubmitReceipt(ctx context.Context, userID int64, receiptRef string) (int64, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	if user.SelectedPlanID == nil {
		return 0, ErrNoPlanSelected
	}

	plan, err := s.store.GetPlan(ctx, *user.SelectedPlanID)
	if err != nil {
		return 0, err
	}

	paymentID, err := s.store.CreatePayment(ctx, models.Payment{
		UserID:     userID,
		PlanID:     plan.ID,
		ReceiptRef: receiptRef,
		Amount:     plan.Price,
		Status:     models.PaymentStatusPending,
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("receipt submitted",
		slog.Int64("user_id", userID), slog.Int64("payment_id", paymentID))
	s.publish(models.LifecycleEvent{
		Kind:      events.KindPaymentSubmitted,
		UserID:    userID,
		PaymentID: paymentID,
		PlanID:    plan.ID,
	})

	text := fmt.Sprintf(
		"new subscription request\nuser: %s [%d]\nplan: %s - %.2f / %d days\npayment id: %d",
		user.DisplayName, userID, plan.Name, plan.Price, plan.DurationDays, paymentID)
	for _, adminID := range s.auth.Admins() {
		if err := s.notifier.Notify(ctx, adminID, text); err != nil {
			s.reportNotifyFailure(adminID, err)
		}
		caption := fmt.Sprintf("receipt #%d", paymentID)
		if err := s.notifier.NotifyWithAttachment(ctx, adminID, caption, receiptRef); err != nil {
			s.reportNotifyFailure(adminID, err)
		}
	}
	return paymentID, nil
}

// DecidePayment фиксирует решение администратора по платежу. Платёж выходит
// из pending не более одного раза: повторное решение получает
// ErrAlreadyDecided. При одобрении атомарно создается активная подписка,
// после чего пользователю отправляется одноразовое приглашение. Сбой выдачи
// приглашения решение не отменяет — администратор получает просьбу
// переотправить вручную.
func (s *Service) DecidePayment(ctx context.Context, paymentID, adminID int64, approve bool) (*models.Subscription, error) {
	if !s.auth.IsAdmin(adminID) {
		return nil, ErrNotAuthorized
	}

	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	plan, err := s.store.GetPlan(ctx, payment.PlanID)
	if err != nil {
		return nil, err
	}

	sub, err := s.store.DecidePayment(ctx, paymentID, adminID, approve, s.now(), plan.DurationDays)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrPaymentNotFound
		case errors.Is(err, repository.ErrAlreadyDecided):
			return nil, ErrAlreadyDecided
		}
		return nil, err
	}

	if !approve {
		s.metrics.PaymentsDecided.WithLabelValues(models.PaymentStatusRejected).Inc()
		s.log.Info("payment rejected",
			slog.Int64("payment_id", paymentID), slog.Int64("admin_id", adminID))
		s.publish(models.LifecycleEvent{
			Kind:      events.KindPaymentRejected,
			UserID:    payment.UserID,
			PaymentID: paymentID,
			PlanID:    payment.PlanID,
		})
		s.confirmDecision(ctx, adminID, fmt.Sprintf("rejected payment #%d", paymentID))
		return nil, nil
	}

	s.metrics.PaymentsDecided.WithLabelValues(models.PaymentStatusApproved).Inc()
	s.log.Info("payment approved",
		slog.Int64("payment_id", paymentID),
		slog.Int64("admin_id", adminID),
		slog.Int64("subscription_id", sub.ID))
	s.publish(models.LifecycleEvent{
		Kind:      events.KindPaymentApproved,
		UserID:    payment.UserID,
		PaymentID: paymentID,
		PlanID:    payment.PlanID,
	})
	s.confirmDecision(ctx, adminID, fmt.Sprintf("approved payment #%d", paymentID))

	s.deliverInvite(ctx, payment.UserID, adminID)
	return sub, nil
}

// ResendInvite выдает свежее приглашение пользователю с активной подпиской.
func (s *Service) ResendInvite(ctx context.Context, userID int64) (string, error) {
	if _, err := s.store.GetActiveSubscription(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNoActiveSubscription) {
			return "", ErrNoActiveSubscription
		}
		return "", err
	}

	invite, err := s.gateway.CreateInvite(ctx, s.cfg.InviteTTL, s.cfg.InviteMaxUses)
	if err != nil {
		s.reportGatewayFailure(userID, err)
		return "", err
	}
	if err := s.notifier.Notify(ctx, userID, s.inviteText(invite)); err != nil {
		s.reportNotifyFailure(userID, err)
	}
	return invite, nil
}

// ExtendSubscription сдвигает окончание активной подписки пользователя
// на deltaDays суток вперёд. Статус подписки не меняется.
func (s *Service) ExtendSubscription(ctx context.Context, userID, adminID int64, deltaDays int) (*models.Subscription, error) {
	if !s.auth.IsAdmin(adminID) {
		return nil, ErrNotAuthorized
	}

	delta := time.Duration(deltaDays) * 24 * time.Hour
	sub, err := s.store.ExtendActiveSubscription(ctx, userID, delta)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSubscription) {
			return nil, ErrNoActiveSubscription
		}
		return nil, err
	}
	s.log.Info("subscription extended",
		slog.Int64("user_id", userID),
		slog.Int("delta_days", deltaDays),
		slog.Time("end_at", sub.EndAt))
	return sub, nil
}

// EndSubscription досрочно завершает активную подписку пользователя:
// подписка и пользователь помечаются истекшими, затем выполняется
// best-effort удаление из канала.
func (s *Service) EndSubscription(ctx context.Context, userID, adminID int64) error {
	if !s.auth.IsAdmin(adminID) {
		return ErrNotAuthorized
	}

	sub, err := s.store.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSubscription) {
			return ErrNoActiveSubscription
		}
		return err
	}
	s.revoke(ctx, sub)
	return nil
}

// SweepExpirations находит активные подписки с истекшим сроком и выполняет
// для каждой последовательность отзыва доступа. Повторный запуск безопасен:
// подписка, уже отозванная конкурирующим действием, пропускается.
// Возвращает число реально истекших подписок.
func (s *Service) SweepExpirations(ctx context.Context, now time.Time) (int, error) {
	subs, err := s.store.ListExpiring(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(subs) == 0 {
		return 0, nil
	}
	s.log.Info("found expiring subscriptions", slog.Int("count", len(subs)))

	var expired int
	for _, sub := range subs {
		if s.revoke(ctx, sub) {
			expired++
		}
	}
	return expired, nil
}

// revoke — последовательность отзыва доступа. Сначала подписка атомарно
// переводится в expired (claim сериализует конкурирующие sweep и действия
// администратора), затем пользователь убирается из канала. Сбой удаления
// не возвращает подписку в active: он логируется, считается и публикуется.
func (s *Service) revoke(ctx context.Context, sub *models.Subscription) bool {
	claimed, err := s.store.ExpireSubscription(ctx, sub.ID, sub.UserID)
	if err != nil {
		s.log.Error("failed to expire subscription",
			slog.Int64("subscription_id", sub.ID), sl.Err(err))
		return false
	}
	if !claimed {
		return false
	}

	s.metrics.SubscriptionsExpired.Inc()
	s.log.Info("subscription expired",
		slog.Int64("subscription_id", sub.ID), slog.Int64("user_id", sub.UserID))
	s.publish(models.LifecycleEvent{
		Kind:   events.KindSubscriptionExpired,
		UserID: sub.UserID,
		PlanID: sub.PlanID,
	})

	if err := s.gateway.RemoveMember(ctx, sub.UserID); err != nil {
		s.reportGatewayFailure(sub.UserID, err)
	}
	return true
}

// deliverInvite выдает приглашение и отправляет его пользователю.
// Любой сбой здесь не влияет на уже зафиксированное одобрение.
func (s *Service) deliverInvite(ctx context.Context, userID, adminID int64) {
	invite, err := s.gateway.CreateInvite(ctx, s.cfg.InviteTTL, s.cfg.InviteMaxUses)
	if err != nil {
		s.reportGatewayFailure(userID, err)
		text := fmt.Sprintf("failed to create invite for user %d, please resend manually", userID)
		if nerr := s.notifier.Notify(ctx, adminID, text); nerr != nil {
			s.reportNotifyFailure(adminID, nerr)
		}
		return
	}
	if err := s.notifier.Notify(ctx, userID, s.inviteText(invite)); err != nil {
		s.reportNotifyFailure(userID, err)
	}
}

// confirmDecision подтверждает администратору исход решения.
func (s *Service) confirmDecision(ctx context.Context, adminID int64, text string) {
	if err := s.notifier.Notify(ctx, adminID, text); err != nil {
		s.reportNotifyFailure(adminID, err)
	}
}

func (s *Service) inviteText(invite string) string {
	return fmt.Sprintf(
		"your subscription is approved\njoin link (valid for %s, single use):\n%s\n\nif the link expires before you join, request a new one",
		s.cfg.InviteTTL, invite)
}

func (s *Service) publish(event models.LifecycleEvent) {
	if err := s.publisher.Publish(event); err != nil {
		s.log.Warn("failed to publish lifecycle event",
			slog.String("kind", event.Kind), sl.Err(err))
	}
}

func (s *Service) reportGatewayFailure(userID int64, err error) {
	s.metrics.GatewayFailures.Inc()
	s.log.Error("channel gateway failure", slog.Int64("user_id", userID), sl.Err(err))
	s.publish(models.LifecycleEvent{
		Kind:   events.KindGatewayFailure,
		UserID: userID,
		Detail: err.Error(),
	})
}

func (s *Service) reportNotifyFailure(identity int64, err error) {
	s.metrics.NotifyFailures.Inc()
	s.log.Warn("notification delivery failure", slog.Int64("identity", identity), sl.Err(err))
	s.publish(models.LifecycleEvent{
		Kind:   events.KindNotifyFailure,
		UserID: identity,
		Detail: err.Error(),
	})
}
