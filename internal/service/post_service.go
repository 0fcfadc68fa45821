package service

import (
	"context"

	"go.uber.org/zap"

	"chatcore/internal/domain"
	"chatcore/internal/reaction"
	"chatcore/internal/view"
)

// PostService toggles likes on feed posts.
type PostService struct {
	store     domain.Store
	reactions *reaction.Engine
	log       *zap.Logger
}

func NewPostService(store domain.Store, reactions *reaction.Engine, log *zap.Logger) *PostService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostService{store: store, reactions: reactions, log: log}
}

func (s *PostService) ToggleReaction(ctx context.Context, userID, postID int64) (*view.PostReactions, error) {
	res, err := s.reactions.Toggle(ctx, reaction.PostTarget(s.store), postID, userID, "")
	if err != nil {
		return nil, err
	}
	s.log.Debug("post_reaction_toggled",
		zap.Int64("post_id", postID),
		zap.Int64("user_id", userID),
		zap.String("outcome", string(res.Outcome)),
	)
	return &view.PostReactions{
		Outcome:        string(res.Outcome),
		Reacted:        res.Outcome != reaction.Removed,
		TotalReactions: len(res.Reactions),
		Reactions:      view.NewReactions(res.Reactions),
	}, nil
}
