// Package inmemory implements storage.Storage with mutex-guarded maps. It
// carries the same semantics as the postgres store, including the closure
// invariants, and backs the unit tests.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/models"
	"github.com/town-square/api-go/storage"
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	nextUserID    uint
	nextTownID    uint
	nextPostID    uint
	nextCommentID uint

	users map[uint]*models.User
	towns map[uint]*models.Town
	posts map[uint]*models.Post

	postImages map[uint][]models.PostImage
	likes      map[uint]map[uint]bool // postID -> userID set

	comments map[uint]*models.Comment
	// ancestors[child] is the closure row set for the child, child included.
	ancestors map[uint]map[uint]bool

	userBlocks    map[uint]map[uint]bool // blocker -> blocked users
	postBlocks    map[uint]map[uint]bool // blocker -> blocked posts
	commentBlocks map[uint]map[uint]bool // blocker -> blocked comments

	verifications map[string]models.PhoneVerification
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[uint]*models.User),
		towns:         make(map[uint]*models.Town),
		posts:         make(map[uint]*models.Post),
		postImages:    make(map[uint][]models.PostImage),
		likes:         make(map[uint]map[uint]bool),
		comments:      make(map[uint]*models.Comment),
		ancestors:     make(map[uint]map[uint]bool),
		userBlocks:    make(map[uint]map[uint]bool),
		postBlocks:    make(map[uint]map[uint]bool),
		commentBlocks: make(map[uint]map[uint]bool),
		verifications: make(map[string]models.PhoneVerification),
	}
}

func (s *Store) RegisterUser(_ context.Context, user *models.User, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Phone == user.Phone {
			return apperr.ErrDuplicatePhone
		}
	}

	town := s.townByAddressLocked(address)

	s.nextUserID++
	user.ID = s.nextUserID
	user.TownID = town.ID
	user.Town = *town
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt

	saved := *user
	s.users[user.ID] = &saved
	return nil
}

func (s *Store) UserByID(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *Store) UserByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Phone == phone {
			copied := *user
			return &copied, nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (s *Store) UpdateRefreshTokenHash(_ context.Context, userID uint, hash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	user.RefreshTokenHash = hash
	return nil
}

func (s *Store) UpdateUserBio(_ context.Context, userID uint, bio string) error {
	return s.updateUser(userID, func(u *models.User) { u.Bio = bio })
}

func (s *Store) UpdateUserPicture(_ context.Context, userID uint, url string) error {
	return s.updateUser(userID, func(u *models.User) { u.Picture = url })
}

func (s *Store) UpdateUserVerificationPhoto(_ context.Context, userID uint, url string) error {
	return s.updateUser(userID, func(u *models.User) { u.VerificationPhotoURL = url })
}

func (s *Store) updateUser(userID uint, update func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	update(user)
	user.UpdatedAt = s.now()
	return nil
}

func (s *Store) TownByAddress(_ context.Context, address string) (*models.Town, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	town := s.townByAddressLocked(address)
	copied := *town
	return &copied, nil
}

func (s *Store) townByAddressLocked(address string) *models.Town {
	for _, town := range s.towns {
		if town.Address == address {
			return town
		}
	}

	s.nextTownID++
	town := &models.Town{ID: s.nextTownID, Address: address, CreatedAt: s.now()}
	s.towns[town.ID] = town
	return town
}

func (s *Store) CreatePost(_ context.Context, post *models.Post, images []models.PostImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextPostID++
	post.ID = s.nextPostID
	post.CreatedAt = s.now()
	post.UpdatedAt = post.CreatedAt
	s.replaceImagesLocked(post, images)

	saved := *post
	s.posts[post.ID] = &saved
	return nil
}

func (s *Store) PostByID(_ context.Context, id, viewerID uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || !s.postVisibleLocked(post, viewerID) {
		return nil, apperr.ErrPostNotFound
	}

	copied := *post
	s.attachCountsLocked(&copied)
	return &copied, nil
}

func (s *Store) Posts(_ context.Context, viewerID uint, opts storage.ListPostsOptions) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = storage.DefaultPostPageSize
	}

	ids := make([]uint, 0, len(s.posts))
	for id := range s.posts {
		if opts.LastID > 0 && id >= opts.LastID {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	posts := make([]models.Post, 0, limit)
	for _, id := range ids {
		if len(posts) == limit {
			break
		}
		post := s.posts[id]
		if !s.postVisibleLocked(post, viewerID) {
			continue
		}
		copied := *post
		s.attachCountsLocked(&copied)
		posts = append(posts, copied)
	}
	return posts, nil
}

func (s *Store) UpdatePost(_ context.Context, id, authorID uint, content string, images []models.PostImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || post.AuthorID != authorID {
		return apperr.ErrPostNotFound
	}

	post.Content = content
	post.UpdatedAt = s.now()
	s.replaceImagesLocked(post, images)
	return nil
}

func (s *Store) DeletePost(_ context.Context, id, authorID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || post.AuthorID != authorID {
		return apperr.ErrPostNotFound
	}

	for commentID, comment := range s.comments {
		if comment.PostID == id {
			delete(s.comments, commentID)
			delete(s.ancestors, commentID)
			for _, blocked := range s.commentBlocks {
				delete(blocked, commentID)
			}
		}
	}

	delete(s.posts, id)
	delete(s.postImages, id)
	delete(s.likes, id)
	for _, blocked := range s.postBlocks {
		delete(blocked, id)
	}
	return nil
}

func (s *Store) PostImages(_ context.Context, postID uint) ([]models.PostImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]models.PostImage(nil), s.postImages[postID]...), nil
}

func (s *Store) ToggleLike(_ context.Context, postID, userID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return false, apperr.ErrPostNotFound
	}

	if s.likes[postID] == nil {
		s.likes[postID] = make(map[uint]bool)
	}
	if s.likes[postID][userID] {
		delete(s.likes[postID], userID)
		return false, nil
	}
	s.likes[postID][userID] = true
	return true, nil
}

func (s *Store) AddComment(_ context.Context, postID, authorID uint, content string, parentID *uint) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return nil, apperr.ErrPostNotFound
	}

	if parentID != nil {
		parent, ok := s.comments[*parentID]
		if !ok {
			return nil, apperr.ErrCommentNotFound
		}
		if parent.PostID != postID {
			return nil, apperr.ErrInvalidRequest
		}
	}

	s.nextCommentID++
	comment := &models.Comment{
		ID:        s.nextCommentID,
		PostID:    postID,
		AuthorID:  &authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.comments[comment.ID] = comment

	// ancestors(new) = ancestors(parent) ∪ {new}; a root inherits nothing.
	edges := map[uint]bool{comment.ID: true}
	if parentID != nil {
		for ancestor := range s.ancestors[*parentID] {
			edges[ancestor] = true
		}
	}
	s.ancestors[comment.ID] = edges

	copied := *comment
	return &copied, nil
}

func (s *Store) DeleteComment(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return apperr.ErrCommentNotFound
	}

	for childID, edges := range s.ancestors {
		if edges[id] {
			delete(s.comments, childID)
			delete(s.ancestors, childID)
			for _, blocked := range s.commentBlocks {
				delete(blocked, childID)
			}
		}
	}
	return nil
}

func (s *Store) CommentsByPostID(_ context.Context, postID, viewerID uint) ([]models.CommentNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var visible []models.Comment
	var edges []models.CommentClosure
	for id, comment := range s.comments {
		if comment.PostID != postID {
			continue
		}
		for ancestor := range s.ancestors[id] {
			edges = append(edges, models.CommentClosure{ParentCommentID: ancestor, ChildCommentID: id})
		}
		if s.commentVisibleLocked(comment, viewerID) {
			visible = append(visible, *comment)
		}
	}

	sort.Slice(visible, func(i, j int) bool {
		if visible[i].CreatedAt.Equal(visible[j].CreatedAt) {
			return visible[i].ID < visible[j].ID
		}
		return visible[i].CreatedAt.Before(visible[j].CreatedAt)
	})

	return storage.BuildCommentNodes(visible, edges), nil
}

func (s *Store) CommentByID(_ context.Context, id, viewerID uint) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok || !s.commentVisibleLocked(comment, viewerID) {
		return nil, apperr.ErrCommentNotFound
	}
	copied := *comment
	return &copied, nil
}

func (s *Store) CommentByIDAnyViewer(_ context.Context, id uint) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, ok := s.comments[id]
	if !ok {
		return nil, apperr.ErrCommentNotFound
	}
	copied := *comment
	return &copied, nil
}

func (s *Store) ToggleUserBlock(_ context.Context, blockerID, targetID uint) (bool, error) {
	if blockerID == targetID {
		return false, apperr.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[targetID]; !ok {
		return false, apperr.ErrUserNotFound
	}
	return toggle(s.userBlocks, blockerID, targetID), nil
}

func (s *Store) TogglePostBlock(_ context.Context, blockerID, postID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[postID]; !ok {
		return false, apperr.ErrPostNotFound
	}
	return toggle(s.postBlocks, blockerID, postID), nil
}

func (s *Store) ToggleCommentBlock(_ context.Context, blockerID, commentID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[commentID]; !ok {
		return false, apperr.ErrCommentNotFound
	}
	return toggle(s.commentBlocks, blockerID, commentID), nil
}

func (s *Store) ReplacePhoneVerification(_ context.Context, phone, code string, issuedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verifications[phone] = models.PhoneVerification{Phone: phone, Code: code, CreatedAt: issuedAt}
	return nil
}

func (s *Store) PhoneVerificationByPhone(_ context.Context, phone string) (*models.PhoneVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.verifications[phone]
	if !ok {
		return nil, apperr.ErrVerification
	}
	copied := record
	return &copied, nil
}

func (s *Store) DeletePhoneVerification(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.verifications, phone)
	return nil
}

func (s *Store) postVisibleLocked(post *models.Post, viewerID uint) bool {
	if s.postBlocks[viewerID][post.ID] {
		return false
	}
	return !s.userBlocks[viewerID][post.AuthorID]
}

func (s *Store) commentVisibleLocked(comment *models.Comment, viewerID uint) bool {
	if s.commentBlocks[viewerID][comment.ID] {
		return false
	}
	return comment.AuthorID == nil || !s.userBlocks[viewerID][*comment.AuthorID]
}

func (s *Store) attachCountsLocked(post *models.Post) {
	post.LikeCount = int64(len(s.likes[post.ID]))
	for _, comment := range s.comments {
		if comment.PostID == post.ID {
			post.CommentCount++
		}
	}
}

func (s *Store) replaceImagesLocked(post *models.Post, images []models.PostImage) {
	urls := make(pq.StringArray, 0, len(images))
	for i := range images {
		images[i].PostID = post.ID
		urls = append(urls, images[i].ImageURL)
	}
	s.postImages[post.ID] = images
	post.ImageURLs = urls
}

func toggle(blocks map[uint]map[uint]bool, blockerID, targetID uint) bool {
	if blocks[blockerID] == nil {
		blocks[blockerID] = make(map[uint]bool)
	}
	if blocks[blockerID][targetID] {
		delete(blocks[blockerID], targetID)
		return false
	}
	blocks[blockerID][targetID] = true
	return true
}
