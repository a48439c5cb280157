package engine

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devflowhq/backend/internal/database"
	"github.com/devflowhq/backend/internal/models"
)

var (
	testDB  *gorm.DB
	testEng *Engine
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("devflow_test"),
		tcpostgres.WithUsername("devflow"),
		tcpostgres.WithPassword("devflow"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Fatalf("starting postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("getting connection string: %v", err)
	}

	testDB, err = database.Open(dsn)
	if err != nil {
		log.Fatalf("opening test database: %v", err)
	}

	testEng = New(testDB, log.New(os.Stderr, "engine-test: ", log.LstdFlags))

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		log.Printf("terminating container: %v", err)
	}

	os.Exit(code)
}

func resetTables(t *testing.T) {
	t.Helper()
	err := testDB.Exec(
		"TRUNCATE TABLE users, tags, questions, answers, votes, interactions, collections, tag_questions CASCADE",
	).Error
	require.NoError(t, err)
}

var userSeq int
var userSeqMu sync.Mutex

func newTestUser(t *testing.T) models.User {
	t.Helper()
	userSeqMu.Lock()
	userSeq++
	n := userSeq
	userSeqMu.Unlock()

	user := models.User{
		Username: fmt.Sprintf("user%d", n),
		Email:    fmt.Sprintf("user%d@example.com", n),
		Password: "hashed",
	}
	require.NoError(t, testDB.Create(&user).Error)
	return user
}

func newTestQuestion(t *testing.T, author models.User, tags ...string) *models.Question {
	t.Helper()
	if len(tags) == 0 {
		tags = []string{"go"}
	}
	question, err := testEng.CreateQuestion(context.Background(), author.ID, models.CreateQuestionRequest{
		Title:   "How do transactions work?",
		Content: "Looking for an explanation of unit-of-work scoping.",
		Tags:    tags,
	})
	require.NoError(t, err)
	return question
}

func reloadUser(t *testing.T, id string) models.User {
	t.Helper()
	var user models.User
	require.NoError(t, testDB.First(&user, "id = ?", id).Error)
	return user
}

// assertTagInvariant checks that every tag's denormalized question count
// equals the number of relation rows referencing it.
func assertTagInvariant(t *testing.T) {
	t.Helper()
	var tags []models.Tag
	require.NoError(t, testDB.Find(&tags).Error)
	for _, tag := range tags {
		var relations int64
		require.NoError(t, testDB.Model(&models.TagQuestion{}).Where("tag_id = ?", tag.ID).Count(&relations).Error)
		assert.Equal(t, int64(tag.Questions), relations, "tag %q count vs relation rows", tag.Name)
	}
}

// assertVoteInvariant checks that every question's and answer's vote
// counters equal the number of matching vote rows.
func assertVoteInvariant(t *testing.T) {
	t.Helper()

	var questions []models.Question
	require.NoError(t, testDB.Find(&questions).Error)
	for _, q := range questions {
		var up, down int64
		testDB.Model(&models.Vote{}).Where("target_id = ? AND target_type = ? AND vote_type = ?", q.ID, models.TargetQuestion, models.VoteUp).Count(&up)
		testDB.Model(&models.Vote{}).Where("target_id = ? AND target_type = ? AND vote_type = ?", q.ID, models.TargetQuestion, models.VoteDown).Count(&down)
		assert.Equal(t, int64(q.Upvotes), up, "question upvotes")
		assert.Equal(t, int64(q.Downvotes), down, "question downvotes")
	}

	var answers []models.Answer
	require.NoError(t, testDB.Find(&answers).Error)
	for _, a := range answers {
		var up, down int64
		testDB.Model(&models.Vote{}).Where("target_id = ? AND target_type = ? AND vote_type = ?", a.ID, models.TargetAnswer, models.VoteUp).Count(&up)
		testDB.Model(&models.Vote{}).Where("target_id = ? AND target_type = ? AND vote_type = ?", a.ID, models.TargetAnswer, models.VoteDown).Count(&down)
		assert.Equal(t, int64(a.Upvotes), up, "answer upvotes")
		assert.Equal(t, int64(a.Downvotes), down, "answer downvotes")
	}
}

func TestCreateQuestionDeduplicatesTagCasing(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)

	question, err := testEng.CreateQuestion(ctx, author.ID, models.CreateQuestionRequest{
		Title:   "State management",
		Content: "Which library should I use?",
		Tags:    []string{"React", "react"},
	})
	require.NoError(t, err)

	var tags []models.Tag
	require.NoError(t, testDB.Find(&tags).Error)
	require.Len(t, tags, 1)
	assert.Equal(t, "React", tags[0].Name)
	assert.Equal(t, 1, tags[0].Questions)

	var relations int64
	testDB.Model(&models.TagQuestion{}).Where("question_id = ?", question.ID).Count(&relations)
	assert.Equal(t, int64(1), relations)

	assertTagInvariant(t)
}

func TestCreateQuestionResolvesExistingTagByCase(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)

	newTestQuestion(t, author, "PostgreSQL")
	second, err := testEng.CreateQuestion(ctx, author.ID, models.CreateQuestionRequest{
		Title:   "Index tuning",
		Content: "When does a partial index help?",
		Tags:    []string{"postgresql"},
	})
	require.NoError(t, err)
	require.NotNil(t, second)

	var tags []models.Tag
	require.NoError(t, testDB.Find(&tags).Error)
	require.Len(t, tags, 1, "a name differing only in case must resolve to the same tag")
	assert.Equal(t, "PostgreSQL", tags[0].Name, "first-seen casing wins")
	assert.Equal(t, 2, tags[0].Questions)

	assertTagInvariant(t)
}

func TestEditQuestionTagDiff(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)

	question := newTestQuestion(t, author, "a", "b")

	updated, err := testEng.EditQuestion(ctx, author.ID, question.ID, models.EditQuestionRequest{
		Title:   question.Title,
		Content: question.Content,
		Tags:    []string{"b", "c"},
	})
	require.NoError(t, err)
	require.Len(t, updated.Tags, 2)

	var tagA, tagB, tagC models.Tag
	require.NoError(t, testDB.First(&tagA, "name_key = ?", "a").Error)
	require.NoError(t, testDB.First(&tagB, "name_key = ?", "b").Error)
	require.NoError(t, testDB.First(&tagC, "name_key = ?", "c").Error)

	assert.Equal(t, 0, tagA.Questions, "dropped tag decremented")
	assert.Equal(t, 1, tagB.Questions, "kept tag untouched")
	assert.Equal(t, 1, tagC.Questions, "added tag incremented")

	var aRelations int64
	testDB.Model(&models.TagQuestion{}).Where("tag_id = ?", tagA.ID).Count(&aRelations)
	assert.Equal(t, int64(0), aRelations, "dropped tag's relation row removed")

	assertTagInvariant(t)
}

func TestVoteToggleReturnsToBaseline(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	voter := newTestUser(t)
	question := newTestQuestion(t, author)

	require.NoError(t, testEng.CreateVote(ctx, voter.ID, question.ID, models.TargetQuestion, models.VoteUp))
	require.NoError(t, testEng.CreateVote(ctx, voter.ID, question.ID, models.TargetQuestion, models.VoteUp))

	var reloaded models.Question
	require.NoError(t, testDB.First(&reloaded, "id = ?", question.ID).Error)
	assert.Equal(t, 0, reloaded.Upvotes, "toggle off returns counter to baseline")

	var votes int64
	testDB.Model(&models.Vote{}).Where("target_id = ?", question.ID).Count(&votes)
	assert.Equal(t, int64(0), votes)

	assertVoteInvariant(t)
}

func TestVoteSwitch(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	voter := newTestUser(t)
	question := newTestQuestion(t, author)

	require.NoError(t, testEng.CreateVote(ctx, voter.ID, question.ID, models.TargetQuestion, models.VoteUp))
	require.NoError(t, testEng.CreateVote(ctx, voter.ID, question.ID, models.TargetQuestion, models.VoteDown))

	var votes []models.Vote
	require.NoError(t, testDB.Where("target_id = ?", question.ID).Find(&votes).Error)
	require.Len(t, votes, 1, "exactly one vote row after switch")
	assert.Equal(t, models.VoteDown, votes[0].VoteType)

	var reloaded models.Question
	require.NoError(t, testDB.First(&reloaded, "id = ?", question.ID).Error)
	assert.Equal(t, 0, reloaded.Upvotes)
	assert.Equal(t, 1, reloaded.Downvotes)

	assertVoteInvariant(t)
}

func TestVoteOnAnswer(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	voter := newTestUser(t)
	question := newTestQuestion(t, author)

	answer, err := testEng.CreateAnswer(ctx, author.ID, question.ID, "Use a transaction closure.")
	require.NoError(t, err)

	require.NoError(t, testEng.CreateVote(ctx, voter.ID, answer.ID, models.TargetAnswer, models.VoteUp))

	var reloaded models.Answer
	require.NoError(t, testDB.First(&reloaded, "id = ?", answer.ID).Error)
	assert.Equal(t, 1, reloaded.Upvotes)

	assertVoteInvariant(t)
}

func TestConcurrentVotesNeverLoseUpdates(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	question := newTestQuestion(t, author)

	const voters = 10
	users := make([]models.User, voters)
	for i := range users {
		users[i] = newTestUser(t)
	}

	var wg sync.WaitGroup
	errs := make([]error, voters)
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = testEng.CreateVote(ctx, users[i].ID, question.ID, models.TargetQuestion, models.VoteUp)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "voter %d", i)
	}

	var reloaded models.Question
	require.NoError(t, testDB.First(&reloaded, "id = ?", question.ID).Error)
	assert.Equal(t, voters, reloaded.Upvotes)

	assertVoteInvariant(t)
}

func TestHasVotedIsAPureRead(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	voter := newTestUser(t)
	question := newTestQuestion(t, author)

	status, err := testEng.HasVoted(ctx, voter.ID, question.ID, models.TargetQuestion)
	require.NoError(t, err, "no vote row is not an error")
	assert.False(t, status.HasUpvoted)
	assert.False(t, status.HasDownvoted)

	require.NoError(t, testEng.CreateVote(ctx, voter.ID, question.ID, models.TargetQuestion, models.VoteDown))

	status, err = testEng.HasVoted(ctx, voter.ID, question.ID, models.TargetQuestion)
	require.NoError(t, err)
	assert.False(t, status.HasUpvoted)
	assert.True(t, status.HasDownvoted)
}

func TestCascadeDeleteQuestion(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	answerer := newTestUser(t)
	voter := newTestUser(t)

	question := newTestQuestion(t, author, "go", "sql")

	answer1, err := testEng.CreateAnswer(ctx, answerer.ID, question.ID, "First answer")
	require.NoError(t, err)
	answer2, err := testEng.CreateAnswer(ctx, answerer.ID, question.ID, "Second answer")
	require.NoError(t, err)

	require.NoError(t, testEng.CreateVote(ctx, voter.ID, question.ID, models.TargetQuestion, models.VoteUp))
	require.NoError(t, testEng.CreateVote(ctx, voter.ID, answer1.ID, models.TargetAnswer, models.VoteUp))
	require.NoError(t, testEng.CreateVote(ctx, voter.ID, answer2.ID, models.TargetAnswer, models.VoteDown))

	saved, err := testEng.ToggleSave(ctx, voter.ID, question.ID)
	require.NoError(t, err)
	require.True(t, saved)

	require.NoError(t, testEng.DeleteQuestion(ctx, author.ID, question.ID))

	var count int64
	testDB.Model(&models.Question{}).Where("id = ?", question.ID).Count(&count)
	assert.Equal(t, int64(0), count, "question row gone")

	testDB.Model(&models.Answer{}).Where("question_id = ?", question.ID).Count(&count)
	assert.Equal(t, int64(0), count, "answer rows gone")

	testDB.Model(&models.TagQuestion{}).Where("question_id = ?", question.ID).Count(&count)
	assert.Equal(t, int64(0), count, "relation rows gone")

	testDB.Model(&models.Collection{}).Where("question_id = ?", question.ID).Count(&count)
	assert.Equal(t, int64(0), count, "collection entries gone")

	testDB.Model(&models.Vote{}).Count(&count)
	assert.Equal(t, int64(0), count, "all votes on the question and its answers gone")

	var tags []models.Tag
	require.NoError(t, testDB.Find(&tags).Error)
	for _, tag := range tags {
		assert.Equal(t, 0, tag.Questions, "tag %q count reversed", tag.Name)
	}

	assertTagInvariant(t)

	// History survives the cascade.
	var interactions int64
	testDB.Model(&models.Interaction{}).Count(&interactions)
	assert.Greater(t, interactions, int64(0), "interaction log never purged")
}

func TestDeleteAnswerCascade(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	answerer := newTestUser(t)
	voter := newTestUser(t)

	question := newTestQuestion(t, author)
	answer, err := testEng.CreateAnswer(ctx, answerer.ID, question.ID, "An answer")
	require.NoError(t, err)

	require.NoError(t, testEng.CreateVote(ctx, voter.ID, answer.ID, models.TargetAnswer, models.VoteUp))

	require.NoError(t, testEng.DeleteAnswer(ctx, answerer.ID, answer.ID))

	var reloaded models.Question
	require.NoError(t, testDB.First(&reloaded, "id = ?", question.ID).Error)
	assert.Equal(t, 0, reloaded.Answers, "answer counter reversed")

	var count int64
	testDB.Model(&models.Vote{}).Where("target_id = ?", answer.ID).Count(&count)
	assert.Equal(t, int64(0), count, "answer votes gone")

	testDB.Model(&models.Answer{}).Where("id = ?", answer.ID).Count(&count)
	assert.Equal(t, int64(0), count, "answer row gone")
}

func TestUnauthorizedMutationsLeaveDataUnchanged(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	intruder := newTestUser(t)

	question := newTestQuestion(t, author, "go")
	answer, err := testEng.CreateAnswer(ctx, author.ID, question.ID, "Mine")
	require.NoError(t, err)

	_, err = testEng.EditQuestion(ctx, intruder.ID, question.ID, models.EditQuestionRequest{
		Title:   "Hijacked",
		Content: "Hijacked",
		Tags:    []string{"spam"},
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = testEng.DeleteQuestion(ctx, intruder.ID, question.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = testEng.DeleteAnswer(ctx, intruder.ID, answer.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var reloaded models.Question
	require.NoError(t, testDB.Preload("Tags").First(&reloaded, "id = ?", question.ID).Error)
	assert.Equal(t, question.Title, reloaded.Title)
	require.Len(t, reloaded.Tags, 1)
	assert.Equal(t, "go", reloaded.Tags[0].Name)

	var answers int64
	testDB.Model(&models.Answer{}).Where("question_id = ?", question.ID).Count(&answers)
	assert.Equal(t, int64(1), answers)

	assertTagInvariant(t)
}

func TestNotFoundTargets(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	user := newTestUser(t)

	err := testEng.CreateVote(ctx, user.ID, "missing-id", models.TargetQuestion, models.VoteUp)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = testEng.CreateAnswer(ctx, user.ID, "missing-id", "content")
	assert.ErrorIs(t, err, ErrNotFound)

	err = testEng.DeleteQuestion(ctx, user.ID, "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = testEng.IncrementViews(ctx, "", "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReputationOnPostAndVotes(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	voter := newTestUser(t)

	question := newTestQuestion(t, author)

	// Posting a question credits the author.
	assert.Equal(t, 5, reloadUser(t, author.ID).Reputation)

	require.NoError(t, testEng.CreateVote(ctx, voter.ID, question.ID, models.TargetQuestion, models.VoteUp))

	assert.Equal(t, 2, reloadUser(t, voter.ID).Reputation, "performer delta")
	assert.Equal(t, 15, reloadUser(t, author.ID).Reputation, "author delta on top of post credit")
}

func TestSelfVoteAppliesAuthorDeltaOnce(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)

	question := newTestQuestion(t, author)
	base := reloadUser(t, author.ID).Reputation

	require.NoError(t, testEng.CreateVote(ctx, author.ID, question.ID, models.TargetQuestion, models.VoteUp))

	assert.Equal(t, base+10, reloadUser(t, author.ID).Reputation,
		"self upvote earns the author delta once, never performer plus author")
}

func TestInteractionLogAppendsForEveryAction(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	voter := newTestUser(t)

	question := newTestQuestion(t, author)
	require.NoError(t, testEng.CreateVote(ctx, voter.ID, question.ID, models.TargetQuestion, models.VoteUp))

	var interactions []models.Interaction
	require.NoError(t, testDB.Order("created_at asc").Find(&interactions).Error)
	require.Len(t, interactions, 2)
	assert.Equal(t, models.ActionPost, interactions[0].Action)
	assert.Equal(t, models.ActionUpvote, interactions[1].Action)
	assert.Equal(t, voter.ID, interactions[1].UserID)
}

func TestIncrementViews(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	question := newTestQuestion(t, author)

	views, err := testEng.IncrementViews(ctx, "", question.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	views, err = testEng.IncrementViews(ctx, "", question.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, views)

	var interactions int64
	testDB.Model(&models.Interaction{}).Where("action = ?", models.ActionView).Count(&interactions)
	assert.Equal(t, int64(0), interactions, "anonymous views leave no interaction")
}

func TestIncrementViewsRecordsViewInteraction(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	reader := newTestUser(t)
	question := newTestQuestion(t, author)

	views, err := testEng.IncrementViews(ctx, reader.ID, question.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	var interaction models.Interaction
	require.NoError(t, testDB.First(&interaction, "action = ?", models.ActionView).Error)
	assert.Equal(t, reader.ID, interaction.UserID)
	assert.Equal(t, question.ID, interaction.TargetID)
	assert.Equal(t, models.TargetQuestion, interaction.TargetType)

	// Views carry no points for either side.
	assert.Equal(t, 0, reloadUser(t, reader.ID).Reputation)
	assert.Equal(t, 5, reloadUser(t, author.ID).Reputation)
}

func TestAfterCommitHookFailureDoesNotSurface(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	var logged bytes.Buffer
	eng := New(testDB, log.New(&logged, "", 0))

	user := models.User{Username: "hooks", Email: "hooks@example.com", Password: "hashed"}
	err := eng.run(ctx, func(uow *UnitOfWork) error {
		if err := uow.DB().Create(&user).Error; err != nil {
			return err
		}
		uow.AfterCommit(func(context.Context) error {
			return fmt.Errorf("interaction log unavailable")
		})
		return nil
	})
	require.NoError(t, err, "deferred side effect failures must not surface")

	var saved models.User
	require.NoError(t, testDB.First(&saved, "id = ?", user.ID).Error, "committed mutation must survive the hook failure")
	assert.Contains(t, logged.String(), "post-commit hook failed")
	assert.Contains(t, logged.String(), "interaction log unavailable")
}

func TestEditQuestionConflictOnCorruptTagCount(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	question := newTestQuestion(t, author, "go", "sql")

	// Corrupt the denormalized count out of band so the guarded decrement
	// has nothing left to subtract from.
	err := testDB.Model(&models.Tag{}).
		Where("name_key = ?", "sql").
		UpdateColumn("questions", 0).Error
	require.NoError(t, err)

	_, err = testEng.EditQuestion(ctx, author.ID, question.ID, models.EditQuestionRequest{
		Title:   "a different title",
		Content: question.Content,
		Tags:    []string{"go", "docker"},
	})
	assert.ErrorIs(t, err, ErrConflict)

	var reloaded models.Question
	require.NoError(t, testDB.Preload("Tags").First(&reloaded, "id = ?", question.ID).Error)
	assert.Equal(t, question.Title, reloaded.Title, "title change rolled back")
	assert.Len(t, reloaded.Tags, 2, "tag relations unchanged")

	var dockerTags int64
	testDB.Model(&models.Tag{}).Where("name_key = ?", "docker").Count(&dockerTags)
	assert.Equal(t, int64(0), dockerTags, "tag created in the aborted transaction rolled back")
}

func TestToggleSave(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)
	reader := newTestUser(t)
	question := newTestQuestion(t, author)

	saved, err := testEng.ToggleSave(ctx, reader.ID, question.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	has, err := testEng.HasSaved(ctx, reader.ID, question.ID)
	require.NoError(t, err)
	assert.True(t, has)

	saved, err = testEng.ToggleSave(ctx, reader.ID, question.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	has, err = testEng.HasSaved(ctx, reader.ID, question.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestValidationRejectedBeforeStorage(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	author := newTestUser(t)

	_, err := testEng.CreateQuestion(ctx, author.ID, models.CreateQuestionRequest{
		Title: "", Content: "body", Tags: []string{"go"},
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = testEng.CreateQuestion(ctx, author.ID, models.CreateQuestionRequest{
		Title: "t", Content: "body", Tags: nil,
	})
	assert.ErrorIs(t, err, ErrValidation)

	err = testEng.CreateVote(ctx, author.ID, "some-id", "thread", models.VoteUp)
	assert.ErrorIs(t, err, ErrValidation)

	var questions int64
	testDB.Model(&models.Question{}).Count(&questions)
	assert.Equal(t, int64(0), questions, "nothing reached storage")
}
