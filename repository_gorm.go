package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories that share one gorm handle, which may be a
// transaction.
type Store struct {
	db       *gorm.DB
	Users    UserRepository
	Messages MessageRepository
	Follows  FollowRepository
	Likes    LikeRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    &userRepository{db: db},
		Messages: &messageRepository{db: db},
		Follows:  &followRepository{db: db},
		Likes:    &likeRepository{db: db},
	}
}

// Transaction runs fn against a Store bound to a single transaction. It
// commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// --- users ---

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", classifyUserErr(err))
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "query user by id failed")
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "query user by username failed")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "query user by email failed")
	}
	return &user, nil
}

func (r *userRepository) Search(ctx context.Context, q string) ([]User, error) {
	query := r.db.WithContext(ctx).Order("username")
	if q = strings.TrimSpace(q); q != "" {
		query = query.Where(`username LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(q)+"%")
	}
	var users []User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("search users failed: %w", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("update user failed: %w", classifyUserErr(err))
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users failed: %w", err)
	}
	return n, nil
}

// --- messages ---

type messageRepository struct {
	db *gorm.DB
}

func (r *messageRepository) Create(ctx context.Context, msg *Message) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*Message, error) {
	var msg Message
	if err := r.db.WithContext(ctx).Preload("User").First(&msg, id).Error; err != nil {
		return nil, notFound(err, "query message failed")
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Message{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete message failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *messageRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]Message, error) {
	var msgs []Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list messages by user failed: %w", err)
	}
	return msgs, nil
}

func (r *messageRepository) Timeline(ctx context.Context, userIDs []uint, limit int) ([]Message, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var msgs []Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id IN ?", userIDs).
		Order("timestamp DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list timeline failed: %w", err)
	}
	return msgs, nil
}

func (r *messageRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Message{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count messages failed: %w", err)
	}
	return n, nil
}

func (r *messageRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Message{}).Error; err != nil {
		return fmt.Errorf("delete messages by user failed: %w", err)
	}
	return nil
}

func (r *messageRepository) All(ctx context.Context) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).Order("id").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return msgs, nil
}

// --- follows ---

type followRepository struct {
	db *gorm.DB
}

func (r *followRepository) Add(ctx context.Context, followerID, followedID uint) error {
	edge := Follow{UserFollowingID: followerID, UserBeingFollowedID: followedID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
		return fmt.Errorf("create follow failed: %w", err)
	}
	return nil
}

func (r *followRepository) Remove(ctx context.Context, followerID, followedID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_following_id = ? AND user_being_followed_id = ?", followerID, followedID).
		Delete(&Follow{}).Error
	if err != nil {
		return fmt.Errorf("delete follow failed: %w", err)
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where("user_following_id = ? AND user_being_followed_id = ?", followerID, followedID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow failed: %w", err)
	}
	return n > 0, nil
}

func (r *followRepository) Following(ctx context.Context, userID uint) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.user_being_followed_id = users.id").
		Where("follows.user_following_id = ?", userID).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list following failed: %w", err)
	}
	return users, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.user_following_id = users.id").
		Where("follows.user_being_followed_id = ?", userID).
		Order("users.username").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list followers failed: %w", err)
	}
	return users, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&Follow{}).
		Where("user_following_id = ?", userID).
		Pluck("user_being_followed_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list following ids failed: %w", err)
	}
	return ids, nil
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Follow{}).Where("user_following_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count following failed: %w", err)
	}
	return n, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Follow{}).Where("user_being_followed_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count followers failed: %w", err)
	}
	return n, nil
}

func (r *followRepository) DeleteByUser(ctx context.Context, userID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_following_id = ? OR user_being_followed_id = ?", userID, userID).
		Delete(&Follow{}).Error
	if err != nil {
		return fmt.Errorf("delete follows by user failed: %w", err)
	}
	return nil
}

// --- likes ---

type likeRepository struct {
	db *gorm.DB
}

func (r *likeRepository) Add(ctx context.Context, userID, messageID uint) error {
	edge := Like{UserID: userID, MessageID: messageID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
		return fmt.Errorf("create like failed: %w", err)
	}
	return nil
}

func (r *likeRepository) Remove(ctx context.Context, userID, messageID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&Like{}).Error
	if err != nil {
		return fmt.Errorf("delete like failed: %w", err)
	}
	return nil
}

func (r *likeRepository) Exists(ctx context.Context, userID, messageID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check like failed: %w", err)
	}
	return n > 0, nil
}

func (r *likeRepository) LikedMessages(ctx context.Context, userID uint) ([]Message, error) {
	var msgs []Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("messages.timestamp DESC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("list liked messages failed: %w", err)
	}
	return msgs, nil
}

func (r *likeRepository) LikedMessageIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&Like{}).Where("user_id = ?", userID).Pluck("message_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list liked message ids failed: %w", err)
	}
	return ids, nil
}

func (r *likeRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Like{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count likes failed: %w", err)
	}
	return n, nil
}

func (r *likeRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Like{}).Error; err != nil {
		return fmt.Errorf("delete likes by user failed: %w", err)
	}
	return nil
}

func (r *likeRepository) DeleteByMessage(ctx context.Context, messageID uint) error {
	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Delete(&Like{}).Error; err != nil {
		return fmt.Errorf("delete likes by message failed: %w", err)
	}
	return nil
}

func (r *likeRepository) DeleteByMessageAuthor(ctx context.Context, authorID uint) error {
	sub := r.db.Model(&Message{}).Select("id").Where("user_id = ?", authorID)
	if err := r.db.WithContext(ctx).Where("message_id IN (?)", sub).Delete(&Like{}).Error; err != nil {
		return fmt.Errorf("delete likes by message author failed: %w", err)
	}
	return nil
}

// --- helpers ---

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func classifyUserErr(err error) error {
	target, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(target, "email"):
		return ErrEmailTaken
	default:
		return ErrUsernameTaken
	}
}
