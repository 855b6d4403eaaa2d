package service

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/goil-app/notifications-api/internal/domain"
	"github.com/goil-app/notifications-api/internal/tracking"
)

// ErrNotificationNotFound signals the fetch's one terminal failure: the
// requested notification could not be loaded from either backend.
var ErrNotificationNotFound = errors.New("notification not found")

// defaultBusinessName is used when the business lookup fails or the record
// has no name.
const defaultBusinessName = "Goil"

// NotificationRepository reads notifications from the primary store.
type NotificationRepository interface {
	FindByID(ctx context.Context, id, businessID, language string) (*domain.Notification, error)
	FindReachableIDs(ctx context.Context, cohort []domain.SimplifiedUser, businessIDs []string) ([]string, error)
}

// UserRepository reads simplified account records.
type UserRepository interface {
	FindSimplifiedByID(ctx context.Context, id, businessID string) (*domain.SimplifiedUser, error)
	FindByIDAndBusinessIDs(ctx context.Context, id string, businessIDs []string) (*domain.SimplifiedUser, error)
	FindByPhoneAndBusinessIDs(ctx context.Context, phone string, businessIDs []string) ([]domain.SimplifiedUser, error)
}

// BusinessRepository reads business display data.
type BusinessRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Business, error)
}

// ReadLogRepository reads the per-phone read log.
type ReadLogRepository interface {
	FindReadIDs(ctx context.Context, hashedPhone string, businessIDs []string) ([]string, error)
}

// ChatProvider fetches external chat messages and unread counts.
type ChatProvider interface {
	FindMessageByID(ctx context.Context, id, userID string) (*domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// URLSigner pre-signs image object keys.
type URLSigner interface {
	SignURLs(ctx context.Context, keys []string) []string
}

// GetNotificationRequest carries everything the fetch needs from the guarded
// request: the caller's identity, the session language, the optional business
// filter and the headers forwarded to tracking.
type GetNotificationRequest struct {
	ID          string
	UserID      string
	BusinessID  string
	SessionID   string
	Language    string
	BusinessIDs []string
	Headers     domain.ForwardHeaders
}

// NotificationService orchestrates the single-notification fetch: backend
// dispatch, the parallel fan-out, the unread badge and view tracking.
type NotificationService struct {
	notifications NotificationRepository
	users         UserRepository
	businesses    BusinessRepository
	readLog       ReadLogRepository
	chat          ChatProvider
	signer        URLSigner
	dispatcher    tracking.Dispatcher
	logger        *zap.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	notifications NotificationRepository,
	users UserRepository,
	businesses BusinessRepository,
	readLog ReadLogRepository,
	chat ChatProvider,
	signer URLSigner,
	dispatcher tracking.Dispatcher,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		businesses:    businesses,
		readLog:       readLog,
		chat:          chat,
		signer:        signer,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// GetNotification fetches one notification and the caller's unread badge.
// Only the notification lookup itself is terminal; user, business and badge
// inputs degrade to their defaults on failure.
func (s *NotificationService) GetNotification(ctx context.Context, req GetNotificationRequest) (*domain.NotificationData, error) {
	businessIDs := req.BusinessIDs
	if len(businessIDs) == 0 {
		businessIDs = []string{req.BusinessID}
	}

	// UUID-shaped ids live in the external chat backend, ObjectID-shaped
	// ids in the primary store.
	isExternal := isUUID(req.ID)

	var (
		wg           sync.WaitGroup
		user         *domain.SimplifiedUser
		userErr      error
		notification *domain.Notification
		notifErr     error
		business     *domain.Business
		businessErr  error
		chatUnread   int
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		if len(req.BusinessIDs) == 0 {
			user, userErr = s.users.FindSimplifiedByID(ctx, req.UserID, req.BusinessID)
		} else {
			user, userErr = s.users.FindByIDAndBusinessIDs(ctx, req.UserID, req.BusinessIDs)
		}
	}()
	go func() {
		defer wg.Done()
		if isExternal {
			notification, notifErr = s.chat.FindMessageByID(ctx, req.ID, req.UserID)
		} else {
			notification, notifErr = s.notifications.FindByID(ctx, req.ID, req.BusinessID, req.Language)
		}
	}()
	go func() {
		defer wg.Done()
		business, businessErr = s.businesses.FindByID(ctx, req.BusinessID)
	}()
	go func() {
		defer wg.Done()
		count, err := s.chat.UnreadCount(ctx, req.UserID)
		if err != nil {
			s.logger.Warn("chat unread count failed", zap.Error(err))
			return
		}
		chatUnread = count
	}()
	wg.Wait()

	if notifErr != nil {
		s.logger.Warn("notification fetch failed",
			zap.String("notification_id", req.ID),
			zap.Bool("external", isExternal),
			zap.Error(notifErr),
		)
		return nil, ErrNotificationNotFound
	}

	if !isExternal && isObjectIDHex(req.ID) {
		s.trackView(req)
	}

	if userErr != nil {
		s.logger.Warn("user fetch failed",
			zap.String("user_id", req.UserID),
			zap.Error(userErr),
		)
		user = nil
	}

	badge := s.unreadBadge(ctx, user, businessIDs, chatUnread)

	businessName := defaultBusinessName
	if businessErr != nil {
		s.logger.Warn("business fetch failed",
			zap.String("business_id", req.BusinessID),
			zap.Error(businessErr),
		)
	} else if business != nil && business.Name != "" {
		businessName = business.Name
	}

	imageURLs := s.signer.SignURLs(ctx, notification.ImagePaths)

	return &domain.NotificationData{
		Notification: domain.ToNotificationDTO(notification, imageURLs),
		Badge:        badge,
		BusinessName: businessName,
		BusinessID:   req.BusinessID,
	}, nil
}

// unreadBadge computes |reachable \ read| for the caller's phone cohort,
// plus the external chat unread count. Any failure along the way degrades
// the store-side term to zero.
func (s *NotificationService) unreadBadge(ctx context.Context, user *domain.SimplifiedUser, businessIDs []string, chatUnread int) int {
	if user == nil {
		return chatUnread
	}

	cohort, err := s.users.FindByPhoneAndBusinessIDs(ctx, user.Phone, businessIDs)
	if err != nil {
		s.logger.Warn("cohort fetch failed", zap.Error(err))
		return chatUnread
	}
	for i := range cohort {
		cohort[i].Phone = sha512Hex(cohort[i].Phone)
	}
	hashedPhone := sha512Hex(user.Phone)

	var (
		wg        sync.WaitGroup
		reachable []string
		reachErr  error
		read      []string
		readErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		reachable, reachErr = s.notifications.FindReachableIDs(ctx, cohort, businessIDs)
	}()
	go func() {
		defer wg.Done()
		read, readErr = s.readLog.FindReadIDs(ctx, hashedPhone, businessIDs)
	}()
	wg.Wait()

	if reachErr != nil {
		s.logger.Warn("reachability query failed", zap.Error(reachErr))
		return chatUnread
	}
	if readErr != nil {
		s.logger.Warn("read log query failed", zap.Error(readErr))
		read = nil
	}

	readSet := make(map[string]struct{}, len(read))
	for _, id := range read {
		readSet[id] = struct{}{}
	}
	unread := 0
	for _, id := range reachable {
		if _, ok := readSet[id]; !ok {
			unread++
		}
	}
	return unread + chatUnread
}

// trackView enqueues the view event on the primary path. The dispatcher
// detaches, so this never blocks the response.
func (s *NotificationService) trackView(req GetNotificationRequest) {
	accountID := req.Headers.ClientID
	if accountID == "" {
		accountID = uuid.NewString()
	}
	s.dispatcher.Dispatch(domain.TrackEvent{
		ID:                req.ID,
		BusinessID:        req.BusinessID,
		AccountID:         accountID,
		DeviceClientType:  req.Headers.ClientPlatform,
		DeviceClientModel: req.Headers.ClientDevice,
		DeviceClientOS:    req.Headers.ClientOS,
		SessionID:         req.SessionID,
	}, req.Headers)
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func isObjectIDHex(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}
