package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tailtalk/roomsync/internal/domain"
)

type postRecord struct {
	ID           string `gorm:"primaryKey"`
	RoomID       string `gorm:"index:idx_room_kind"`
	Kind         string `gorm:"index:idx_room_kind"`
	AuthorID     string
	AuthorName   string
	AuthorAvatar string
	Body         string
	Attachments  string // json-encoded []domain.Attachment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (postRecord) TableName() string { return "posts" }

type reactionRecord struct {
	PostID    string `gorm:"primaryKey"`
	Reaction  string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey"`
	UserName  string
	CreatedAt time.Time
}

func (reactionRecord) TableName() string { return "reactions" }

// GormStore is the sqlite-backed Store. In-memory when path is ":memory:",
// which the integration tests use.
type GormStore struct {
	db *gorm.DB
}

func Open(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&postRecord{}, &reactionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) CreatePost(ctx context.Context, post domain.Post) error {
	rec, err := toRecord(post)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *GormStore) UpdatePost(ctx context.Context, post domain.Post) error {
	rec, err := toRecord(post)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&postRecord{ID: post.ID}).
		Updates(map[string]interface{}{
			"body":        rec.Body,
			"attachments": rec.Attachments,
		}).Error
}

func (s *GormStore) DeletePost(ctx context.Context, postID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&postRecord{ID: postID}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", postID).Delete(&reactionRecord{}).Error
	})
}

func (s *GormStore) GetPost(ctx context.Context, postID string) (domain.Post, bool, error) {
	var rec postRecord
	err := s.db.WithContext(ctx).First(&rec, "id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Post{}, false, nil
	}
	if err != nil {
		return domain.Post{}, false, err
	}
	post, err := fromRecord(rec)
	if err != nil {
		return domain.Post{}, false, err
	}
	return post, true, nil
}

func (s *GormStore) History(ctx context.Context, roomID, kind string, limit int) ([]domain.Post, error) {
	var recs []postRecord
	err := s.db.WithContext(ctx).
		Where("room_id = ? AND kind = ?", roomID, kind).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	// Window is fetched newest-first; the client renders oldest-first.
	posts := make([]domain.Post, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		post, err := fromRecord(recs[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *GormStore) ToggleReaction(ctx context.Context, postID, reaction string, user domain.User) (domain.ReactionSet, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing reactionRecord
		err := tx.First(&existing, "post_id = ? AND reaction = ? AND user_id = ?",
			postID, reaction, user.ID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&reactionRecord{
				PostID:    postID,
				Reaction:  reaction,
				UserID:    user.ID,
				UserName:  user.DisplayName,
				CreatedAt: time.Now().UTC(),
			}).Error
		case err != nil:
			return err
		default:
			return tx.Where("post_id = ? AND reaction = ? AND user_id = ?",
				postID, reaction, user.ID).Delete(&reactionRecord{}).Error
		}
	})
	if err != nil {
		return nil, err
	}
	return s.ReactionsForPost(ctx, postID)
}

func (s *GormStore) ReactionsForPost(ctx context.Context, postID string) (domain.ReactionSet, error) {
	var recs []reactionRecord
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	set := domain.ReactionSet{}
	for _, r := range recs {
		set[r.Reaction] = append(set[r.Reaction], domain.User{
			ID:          r.UserID,
			DisplayName: r.UserName,
		})
	}
	return set, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRecord(post domain.Post) (postRecord, error) {
	attachments, err := json.Marshal(post.Attachments)
	if err != nil {
		return postRecord{}, err
	}
	return postRecord{
		ID:           post.ID,
		RoomID:       post.RoomID,
		Kind:         post.Kind,
		AuthorID:     post.Author.ID,
		AuthorName:   post.Author.DisplayName,
		AuthorAvatar: post.Author.AvatarURL,
		Body:         post.Body,
		Attachments:  string(attachments),
		CreatedAt:    post.CreatedAt,
	}, nil
}

func fromRecord(rec postRecord) (domain.Post, error) {
	var attachments []domain.Attachment
	if rec.Attachments != "" {
		if err := json.Unmarshal([]byte(rec.Attachments), &attachments); err != nil {
			return domain.Post{}, err
		}
	}
	return domain.Post{
		ID:     rec.ID,
		RoomID: rec.RoomID,
		Kind:   rec.Kind,
		Author: domain.User{
			ID:          rec.AuthorID,
			DisplayName: rec.AuthorName,
			AvatarURL:   rec.AuthorAvatar,
		},
		Body:        rec.Body,
		Attachments: attachments,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
