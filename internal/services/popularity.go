package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/dbctx"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
	"github.com/filmgraph/filmgraph-backend/internal/recs/selector"
)

// PopularityService serves the popularity chart used for cold-start
// recommendations. Reads prefer the Redis sorted set and fall back to a
// rating-count query when the chart is absent or Redis is down.
type PopularityService interface {
	selector.Fallback
	RefreshChart(ctx context.Context) error
}

type popularityService struct {
	log        *logger.Logger
	rdb        *goredis.Client
	chartKey   string
	movieRepo  repos.MovieRepo
	minRatings int
	chartSize  int
}

func NewPopularityService(
	baseLog *logger.Logger,
	rdb *goredis.Client,
	chartKey string,
	movieRepo repos.MovieRepo,
	minRatings int,
) PopularityService {
	return &popularityService{
		log:        baseLog.With("service", "PopularityService"),
		rdb:        rdb,
		chartKey:   chartKey,
		movieRepo:  movieRepo,
		minRatings: minRatings,
		chartSize:  500,
	}
}

// TopMovies returns up to limit movie ids ordered best first. The score of a
// candidate is its vote average scaled into [0, 1], 0 when the movie has no
// votes; the chart rank only decides the order.
func (s *popularityService) TopMovies(ctx context.Context, limit int) ([]selector.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}

	if ids := s.fromChart(ctx, limit); len(ids) > 0 {
		return s.candidatesForIDs(ctx, ids)
	}

	movies, err := s.movieRepo.GetPopular(dbctx.Context{Ctx: ctx}, s.minRatings, limit)
	if err != nil {
		return nil, fmt.Errorf("popularity fallback query: %w", err)
	}
	candidates := make([]selector.Candidate, 0, len(movies))
	for _, m := range movies {
		candidates = append(candidates, selector.Candidate{
			MovieID: strconv.FormatInt(m.ID, 10),
			Score:   voteScore(m.VoteAverage),
		})
	}
	return candidates, nil
}

// fromChart reads the ordered ids from the Redis sorted set. Any failure is a
// miss, not an error.
func (s *popularityService) fromChart(ctx context.Context, limit int) []int64 {
	if s.rdb == nil || s.chartKey == "" {
		return nil
	}
	members, err := s.rdb.ZRevRange(ctx, s.chartKey, 0, int64(limit-1)).Result()
	if err != nil {
		s.log.Warn("Popularity chart read failed, falling back to database", "error", err)
		return nil
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			s.log.Warn("Skipping malformed chart member", "member", m)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// candidatesForIDs resolves chart ids against storage, preserving the chart
// order and dropping ids whose movie row no longer exists.
func (s *popularityService) candidatesForIDs(ctx context.Context, ids []int64) ([]selector.Candidate, error) {
	movies, err := s.movieRepo.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve chart movies: %w", err)
	}
	byID := make(map[int64]float64, len(movies))
	for _, m := range movies {
		byID[m.ID] = m.VoteAverage
	}
	candidates := make([]selector.Candidate, 0, len(ids))
	for _, id := range ids {
		avg, ok := byID[id]
		if !ok {
			s.log.Warn("Chart movie missing from storage, skipping", "movie_id", id)
			continue
		}
		candidates = append(candidates, selector.Candidate{
			MovieID: strconv.FormatInt(id, 10),
			Score:   voteScore(avg),
		})
	}
	return candidates, nil
}

// RefreshChart rebuilds the sorted set from rating counts.
func (s *popularityService) RefreshChart(ctx context.Context) error {
	if s.rdb == nil {
		return fmt.Errorf("redis client not configured")
	}

	movies, err := s.movieRepo.GetPopular(dbctx.Context{Ctx: ctx}, s.minRatings, s.chartSize)
	if err != nil {
		return fmt.Errorf("load popular movies: %w", err)
	}
	if len(movies) == 0 {
		s.log.Warn("No movies qualify for the popularity chart yet")
		return nil
	}

	members := make([]goredis.Z, 0, len(movies))
	for i, m := range movies {
		members = append(members, goredis.Z{
			Score:  float64(len(movies) - i),
			Member: strconv.FormatInt(m.ID, 10),
		})
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.chartKey)
	pipe.ZAdd(ctx, s.chartKey, members...)
	pipe.Expire(ctx, s.chartKey, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write popularity chart: %w", err)
	}

	s.log.Info("Refreshed popularity chart", "key", s.chartKey, "size", len(members))
	return nil
}

// voteScore scales a 0..10 vote average into [0, 1].
func voteScore(avg float64) float64 {
	if avg <= 0 {
		return 0
	}
	if avg >= 10 {
		return 1
	}
	return avg / 10
}
