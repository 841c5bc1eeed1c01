package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/indias-got-voice/internal/model"
)

var (
	ctx       = context.Background()
	dupErr    = &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry"}
	fixedTime = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func showRows(id uint64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "banner_url", "status", "scheduled_at",
		"started_at", "ended_at", "total_seats", "created_by", "created_at", "updated_at"}).
		AddRow(id, "Finale", "Grand finale", nil, status, fixedTime, nil, nil, 1000, 1, fixedTime, fixedTime)
}

func userRows(id uint64, email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "phone", "user_type",
		"avatar_url", "is_active", "created_at", "updated_at"}).
		AddRow(id, email, "hash", "Asha", nil, model.UserTypeViewer, nil, true, fixedTime, fixedTime)
}

func TestUserCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(q("INSERT INTO users")).
		WithArgs("asha@example.com", sqlmock.AnyArg(), "Asha", nil, model.UserTypeViewer).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(q("FROM users WHERE id=?")).WithArgs(7).WillReturnRows(userRows(7, "asha@example.com"))

	u := model.User{Email: "  Asha@Example.com ", FullName: "Asha", UserType: model.UserTypeViewer}
	require.NoError(t, repo.Create(ctx, &u, "secret-pass", bcrypt.MinCost))
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.True(t, u.IsActive)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO users")).WillReturnError(dupErr)

	u := model.User{Email: "a@b.c", FullName: "A", UserType: model.UserTypeViewer}
	err := NewUserRepo(db).Create(ctx, &u, "secret-pass", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserGetByEmailNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM users WHERE email=?")).WithArgs("x@y.z").WillReturnError(sql.ErrNoRows)

	_, err := NewUserRepo(db).GetByEmail(ctx, "X@Y.z")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenRotateRejectsRevoked(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM refresh_tokens WHERE token_hash=?")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(3, time.Now().Add(time.Hour), time.Now()))
	mock.ExpectRollback()

	_, err := NewTokenRepo(db).Rotate(ctx, "old", "new", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRotate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM refresh_tokens WHERE token_hash=?")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
			AddRow(3, time.Now().Add(time.Hour), nil))
	mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at")).WithArgs("old").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO refresh_tokens")).WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	userID, err := NewTokenRepo(db).Rotate(ctx, "old", "new", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), userID)
}

func TestShowCreateProvisionsSpeakerSeats(t *testing.T) {
	db, mock := newMock(t)
	seatArgs := make([]driver.Value, 0, 20)
	for i := 1; i <= model.SpeakerSeatCount; i++ {
		seatArgs = append(seatArgs, 5, i)
	}
	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO shows")).WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(q("INSERT INTO speaker_seats (show_id, seat_number) VALUES")).
		WithArgs(seatArgs...).WillReturnResult(sqlmock.NewResult(1, 10))
	mock.ExpectQuery(q("FROM shows WHERE id = ?")).WithArgs(5).WillReturnRows(showRows(5, model.ShowUpcoming))
	mock.ExpectCommit()

	s := model.Show{Title: "Finale", Description: "Grand finale", ScheduledAt: fixedTime}
	require.NoError(t, NewShowRepo(db).Create(ctx, &s))
	assert.Equal(t, uint64(5), s.ID)
	assert.Equal(t, model.ShowUpcoming, s.Status)
	assert.Equal(t, uint32(1000), s.TotalSeats)
}

func TestShowUpdateStatus(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM shows WHERE id = ? FOR UPDATE")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ShowUpcoming))
		mock.ExpectExec(q("UPDATE shows")).
			WithArgs(model.ShowLive, model.ShowLive, model.ShowLive, 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("FROM shows WHERE id = ?")).WillReturnRows(showRows(4, model.ShowLive))
		mock.ExpectCommit()

		s, err := NewShowRepo(db).UpdateStatus(ctx, 4, model.ShowLive)
		require.NoError(t, err)
		assert.Equal(t, model.ShowLive, s.Status)
	})

	for name, tc := range map[string]struct {
		current, next string
		want          error
	}{
		"same":          {model.ShowLive, model.ShowLive, ErrNoChange},
		"backwards":     {model.ShowEnded, model.ShowLive, ErrInvalidTransition},
		"skips go-live": {model.ShowUpcoming, model.ShowEnded, ErrInvalidTransition},
	} {
		t.Run(name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectBegin()
			mock.ExpectQuery(q("SELECT status FROM shows")).
				WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(tc.current))
			mock.ExpectRollback()

			_, err := NewShowRepo(db).UpdateStatus(ctx, 4, tc.next)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("missing", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM shows")).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := NewShowRepo(db).UpdateStatus(ctx, 4, model.ShowLive)
		assert.ErrorIs(t, err, ErrShowNotFound)
	})
}

func TestShowListFilter(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("FROM shows WHERE status = ? ORDER BY scheduled_at ASC")).
		WithArgs(model.ShowLive).WillReturnRows(showRows(1, model.ShowLive))

	shows, err := NewShowRepo(db).List(ctx, model.ShowLive)
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Nil(t, shows[0].BannerURL)
}

func TestShowDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("DELETE FROM shows")).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, NewShowRepo(db).Delete(ctx, 9), ErrShowNotFound)
}

func TestParticipantApply(t *testing.T) {
	t.Run("show already live", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM shows")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ShowLive))
		mock.ExpectRollback()

		p := model.Participant{ShowID: 1, UserID: 2, StageName: "Ravi", VoiceClipURL: "https://x/clip.mp3"}
		assert.ErrorIs(t, NewParticipantRepo(db).Apply(ctx, &p), ErrShowNotUpcoming)
	})

	t.Run("duplicate", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM shows")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ShowUpcoming))
		mock.ExpectExec(q("INSERT INTO participants")).WillReturnError(dupErr)
		mock.ExpectRollback()

		p := model.Participant{ShowID: 1, UserID: 2, StageName: "Ravi", VoiceClipURL: "https://x/clip.mp3"}
		assert.ErrorIs(t, NewParticipantRepo(db).Apply(ctx, &p), ErrAlreadyApplied)
	})
}

func TestParticipantReview(t *testing.T) {
	t.Run("not allowed", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM participants")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ParticipantRejected))
		mock.ExpectRollback()

		_, err := NewParticipantRepo(db).Review(ctx, 1, model.ParticipantApproved, nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("same status without order", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM participants")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ParticipantApproved))
		mock.ExpectRollback()

		_, err := NewParticipantRepo(db).Review(ctx, 1, model.ParticipantApproved, nil)
		assert.ErrorIs(t, err, ErrNoChange)
	})

	t.Run("approve", func(t *testing.T) {
		db, mock := newMock(t)
		order := uint32(2)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM participants")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ParticipantPending))
		mock.ExpectExec(q("UPDATE participants SET status = ?")).
			WithArgs(model.ParticipantApproved, 2, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("FROM participants p WHERE p.id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "show_id", "stage_name", "bio", "voice_clip_url",
				"status", "performance_order", "total_votes", "created_at", "updated_at"}).
				AddRow(1, 2, 3, "Ravi", nil, "https://x/clip.mp3", model.ParticipantApproved, 2, 0, fixedTime, fixedTime))
		mock.ExpectCommit()

		p, err := NewParticipantRepo(db).Review(ctx, 1, model.ParticipantApproved, &order)
		require.NoError(t, err)
		assert.Equal(t, model.ParticipantApproved, p.Status)
		require.NotNil(t, p.PerformanceOrder)
		assert.Equal(t, uint32(2), *p.PerformanceOrder)
	})
}

func expectShowLock(mock sqlmock.Sqlmock, status string, total int) {
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT status, total_seats FROM shows WHERE id = ? FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "total_seats"}).AddRow(status, total))
}

func seatRows(seat uint32) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "show_id", "user_id", "seat_number", "joined_at"}).
		AddRow(11, 1, 2, seat, fixedTime)
}

func TestSeatJoin(t *testing.T) {
	// Seats {1,2,4} are taken, so the gap at 3 is filled.
	t.Run("fills lowest free seat", func(t *testing.T) {
		db, mock := newMock(t)
		expectShowLock(mock, model.ShowLive, 100)
		mock.ExpectQuery(q("FROM virtual_seats WHERE show_id = ? AND user_id = ?")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(q("SELECT CASE")).WithArgs(1, 1).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
		mock.ExpectExec(q("INSERT INTO virtual_seats")).WithArgs(1, 2, 3).WillReturnResult(sqlmock.NewResult(11, 1))
		mock.ExpectQuery(q("FROM virtual_seats WHERE show_id = ? AND user_id = ?")).WillReturnRows(seatRows(3))
		mock.ExpectCommit()

		seat, err := NewSeatRepo(db).Join(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), seat.SeatNumber)
	})

	t.Run("full", func(t *testing.T) {
		db, mock := newMock(t)
		expectShowLock(mock, model.ShowLive, 2)
		mock.ExpectQuery(q("FROM virtual_seats WHERE show_id = ? AND user_id = ?")).WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(q("SELECT CASE")).WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
		mock.ExpectRollback()

		_, err := NewSeatRepo(db).Join(ctx, 1, 2)
		assert.ErrorIs(t, err, ErrShowFull)
	})

	t.Run("already seated", func(t *testing.T) {
		db, mock := newMock(t)
		expectShowLock(mock, model.ShowUpcoming, 100)
		mock.ExpectQuery(q("FROM virtual_seats WHERE show_id = ? AND user_id = ?")).WillReturnRows(seatRows(7))
		mock.ExpectRollback()

		seat, err := NewSeatRepo(db).Join(ctx, 1, 2)
		assert.ErrorIs(t, err, ErrAlreadySeated)
		assert.Equal(t, uint32(7), seat.SeatNumber)
	})

	t.Run("ended", func(t *testing.T) {
		db, mock := newMock(t)
		expectShowLock(mock, model.ShowEnded, 100)
		mock.ExpectRollback()

		_, err := NewSeatRepo(db).Join(ctx, 1, 2)
		assert.ErrorIs(t, err, ErrShowEnded)
	})
}

func TestSeatLeave(t *testing.T) {
	t.Run("vacates speaker seat", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT seat_number FROM speaker_seats")).
			WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow(4))
		mock.ExpectExec(q("UPDATE speaker_seats SET user_id = NULL")).WithArgs(1, 4).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("DELETE FROM virtual_seats")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		speaker, err := NewSeatRepo(db).Leave(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, uint8(4), speaker)
	})

	t.Run("not seated", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT seat_number FROM speaker_seats")).WillReturnError(sql.ErrNoRows)
		mock.ExpectExec(q("DELETE FROM virtual_seats")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := NewSeatRepo(db).Leave(ctx, 1, 2)
		assert.ErrorIs(t, err, ErrNotSeated)
	})
}

func expectVotePrelude(mock sqlmock.Sqlmock, participantStatus string) {
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT status FROM shows")).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ShowLive))
	mock.ExpectQuery(q("SELECT 1 FROM virtual_seats")).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(q("SELECT status FROM participants WHERE id = ? AND show_id = ? FOR UPDATE")).
		WithArgs(5, 1).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(participantStatus))
}

func TestVoteCast(t *testing.T) {
	t.Run("counts the vote", func(t *testing.T) {
		db, mock := newMock(t)
		expectVotePrelude(mock, model.ParticipantPerforming)
		mock.ExpectExec(q("INSERT INTO votes")).WithArgs(5, 2, 1).WillReturnResult(sqlmock.NewResult(40, 1))
		mock.ExpectExec(q("total_votes = total_votes + 1")).WithArgs(5).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("SELECT total_votes FROM participants")).
			WillReturnRows(sqlmock.NewRows([]string{"total_votes"}).AddRow(12))
		mock.ExpectCommit()

		vote, total, err := NewVoteRepo(db).Cast(ctx, 1, 5, 2)
		require.NoError(t, err)
		assert.Equal(t, uint64(40), vote.ID)
		assert.Equal(t, uint32(12), total)
	})

	t.Run("duplicate", func(t *testing.T) {
		db, mock := newMock(t)
		expectVotePrelude(mock, model.ParticipantApproved)
		mock.ExpectExec(q("INSERT INTO votes")).WillReturnError(dupErr)
		mock.ExpectRollback()

		_, _, err := NewVoteRepo(db).Cast(ctx, 1, 5, 2)
		assert.ErrorIs(t, err, ErrAlreadyVoted)
	})

	t.Run("pending participant", func(t *testing.T) {
		db, mock := newMock(t)
		expectVotePrelude(mock, model.ParticipantPending)
		mock.ExpectRollback()

		_, _, err := NewVoteRepo(db).Cast(ctx, 1, 5, 2)
		assert.ErrorIs(t, err, ErrParticipantNotEligible)
	})

	t.Run("show not live", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM shows")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ShowUpcoming))
		mock.ExpectRollback()

		_, _, err := NewVoteRepo(db).Cast(ctx, 1, 5, 2)
		assert.ErrorIs(t, err, ErrShowNotLive)
	})

	t.Run("not seated", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT status FROM shows")).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ShowLive))
		mock.ExpectQuery(q("SELECT 1 FROM virtual_seats")).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, _, err := NewVoteRepo(db).Cast(ctx, 1, 5, 2)
		assert.ErrorIs(t, err, ErrNotSeated)
	})
}

func TestSpeakerAssign(t *testing.T) {
	t.Run("taken", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT id, user_id FROM speaker_seats")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(30, 9))
		mock.ExpectRollback()

		assert.ErrorIs(t, NewSpeakerRepo(db).Assign(ctx, 1, 3, 2), ErrSpeakerSeatTaken)
	})

	t.Run("already speaking elsewhere", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT id, user_id FROM speaker_seats")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(30, nil))
		mock.ExpectQuery(q("SELECT 1 FROM virtual_seats")).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectExec(q("UPDATE speaker_seats SET user_id = ?")).WillReturnError(dupErr)
		mock.ExpectRollback()

		assert.ErrorIs(t, NewSpeakerRepo(db).Assign(ctx, 1, 3, 2), ErrAlreadySpeaking)
	})

	t.Run("assigns muted", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT id, user_id FROM speaker_seats")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(30, nil))
		mock.ExpectQuery(q("SELECT 1 FROM virtual_seats")).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectExec(q("is_muted = 1")).WithArgs(2, 30).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, NewSpeakerRepo(db).Assign(ctx, 1, 3, 2))
	})
}

func TestSpeakerVacateEmpty(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT user_id FROM speaker_seats")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(nil))
	mock.ExpectRollback()

	_, err := NewSpeakerRepo(db).Vacate(ctx, 1, 3)
	assert.ErrorIs(t, err, ErrNoChange)
}

func TestSpeakerSetMuteRequiresSameOccupant(t *testing.T) {
	t.Run("vacated meanwhile", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT user_id FROM speaker_seats")).WithArgs(1, 3).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(nil))
		mock.ExpectRollback()

		assert.ErrorIs(t, NewSpeakerRepo(db).SetMute(ctx, 1, 3, 2, false), ErrSpeakerSeatChanged)
	})

	t.Run("reassigned meanwhile", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT user_id FROM speaker_seats")).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(9))
		mock.ExpectRollback()

		assert.ErrorIs(t, NewSpeakerRepo(db).SetMute(ctx, 1, 3, 2, false), ErrSpeakerSeatChanged)
	})

	t.Run("same occupant", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT user_id FROM speaker_seats")).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(2))
		mock.ExpectExec(q("UPDATE speaker_seats SET is_muted = ?")).WithArgs(true, 1, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, NewSpeakerRepo(db).SetMute(ctx, 1, 3, 2, true))
	})
}

func commentRows(ids ...uint64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "show_id", "user_id", "comment_text", "created_at", "full_name", "avatar_url"})
	for _, id := range ids {
		rows.AddRow(id, 1, 2, "wow", fixedTime, "Asha", nil)
	}
	return rows
}

func TestCommentListLatestIsChronological(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("ORDER BY c.id DESC LIMIT ?")).WithArgs(1, 3).WillReturnRows(commentRows(9, 8, 7))

	comments, err := NewCommentRepo(db).List(ctx, 1, 0, 3)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, []uint64{7, 8, 9}, []uint64{comments[0].ID, comments[1].ID, comments[2].ID})
}

func TestCommentListAfter(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("c.id > ? ORDER BY c.id ASC")).WithArgs(1, 8, 50).WillReturnRows(commentRows(9))

	comments, err := NewCommentRepo(db).List(ctx, 1, 8, 50)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, uint64(9), comments[0].ID)
}

func TestCommentCreateOnEndedShow(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT status FROM shows")).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ShowEnded))
	mock.ExpectRollback()

	c := model.ShowComment{ShowID: 1, UserID: 2, CommentText: "bye"}
	assert.ErrorIs(t, NewCommentRepo(db).Create(ctx, &c), ErrShowEnded)
}
