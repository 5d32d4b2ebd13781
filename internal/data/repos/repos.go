package repos

import (
	"gorm.io/gorm"

	"github.com/filmgraph/filmgraph-backend/internal/data/repos/jobs"
	"github.com/filmgraph/filmgraph-backend/internal/data/repos/movies"
	"github.com/filmgraph/filmgraph-backend/internal/data/repos/user"
	"github.com/filmgraph/filmgraph-backend/internal/pkg/logger"
)

type UserRepo = user.UserRepo
type MovieRepo = movies.MovieRepo
type RatingRepo = movies.RatingRepo
type RecommendationRepo = movies.RecommendationRepo
type JobRunRepo = jobs.JobRunRepo

var NewUserRepo = user.NewUserRepo
var NewMovieRepo = movies.NewMovieRepo
var NewRatingRepo = movies.NewRatingRepo
var NewRecommendationRepo = movies.NewRecommendationRepo
var NewJobRunRepo = jobs.NewJobRunRepo

// Set bundles every repository for wiring.
type Set struct {
	User           UserRepo
	Movie          MovieRepo
	Rating         RatingRepo
	Recommendation RecommendationRepo
	JobRun         JobRunRepo
}

func Wire(db *gorm.DB, log *logger.Logger) Set {
	log.Info("Wiring repos...")
	return Set{
		User:           NewUserRepo(db, log),
		Movie:          NewMovieRepo(db, log),
		Rating:         NewRatingRepo(db, log),
		Recommendation: NewRecommendationRepo(db, log),
		JobRun:         NewJobRunRepo(db, log),
	}
}
