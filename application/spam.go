package application

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const MaxSpamCount = 50

type spamJob struct {
	id        string
	startedBy int64
	cancel    context.CancelFunc
}

// SpamService repeats a message in a chat, one job per chat at a time.
type SpamService struct {
	messenger Messenger
	pause     func() time.Duration
	settings

	mu   sync.Mutex
	jobs map[int64]*spamJob
	wg   sync.WaitGroup
}

func NewSpamService(messenger Messenger, opts ...Option) *SpamService {
	return &SpamService{
		messenger: messenger,
		settings:  newSettings(opts),
		pause:     func() time.Duration { return time.Second + time.Duration(rand.Int63n(int64(time.Second))) },
		jobs:      make(map[int64]*spamJob),
	}
}

// ParseSpam reads "<message> <count>", where count is the last word.
func ParseSpam(args string) (string, int, bool) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return "", 0, false
	}
	count, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return "", 0, false
	}
	return strings.Join(fields[:len(fields)-1], " "), count, true
}

// HandleSpam validates the request and starts the job in the background.
func (s *SpamService) HandleSpam(ctx context.Context, chatID, starterID int64, args string) error {
	message, count, ok := ParseSpam(args)
	if !ok {
		return s.messenger.SendText(ctx, chatID, text(fmt.Sprintf("Invalid format.\nPlease use: %sspam <message> <count>", s.prefix)))
	}
	if count <= 0 || count > MaxSpamCount {
		return s.messenger.SendText(ctx, chatID, text(fmt.Sprintf("Please provide a number between 1 and %d.", MaxSpamCount)))
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	job := &spamJob{id: uuid.NewString(), startedBy: starterID, cancel: cancel}
	s.mu.Lock()
	if _, busy := s.jobs[chatID]; busy {
		s.mu.Unlock()
		cancel()
		return s.messenger.SendText(ctx, chatID, text("A spam job is already in progress in this chat."))
	}
	s.jobs[chatID] = job
	s.mu.Unlock()

	if err := s.messenger.SendText(ctx, chatID, text(fmt.Sprintf("Starting spam job... To stop, use \"%sstopspam\".", s.prefix))); err != nil {
		s.finish(chatID, job)
		return err
	}

	s.wg.Add(1)
	go s.run(jobCtx, chatID, job, message, count)
	return nil
}

func (s *SpamService) run(ctx context.Context, chatID int64, job *spamJob, message string, count int) {
	defer s.wg.Done()
	defer s.finish(chatID, job)
	logger := log.With().Str("job_id", job.id).Int64("chat_id", chatID).Logger()
	logger.Info().Int("count", count).Msg("spam job started")

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			if err := s.messenger.SendText(context.Background(), chatID, text("Spam job stopped.")); err != nil {
				logger.Error().Err(err).Msg("announcing stopped spam job")
			}
			return
		}
		if err := s.messenger.SendText(ctx, chatID, text(message)); err != nil {
			logger.Error().Err(err).Msg("spam job send")
			return
		}
		if i == count-1 {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(s.pause()):
		}
	}
	logger.Info().Msg("spam job finished")
}

func (s *SpamService) finish(chatID int64, job *spamJob) {
	job.cancel()
	s.mu.Lock()
	if s.jobs[chatID] == job {
		delete(s.jobs, chatID)
	}
	s.mu.Unlock()
}

// Stop ends the chat's job. It returns the reply to send, which is empty when
// the bot should stay silent.
func (s *SpamService) Stop(chatID, stopperID int64, privileged bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[chatID]
	if !ok {
		return "There is no active spam job in this chat to stop."
	}
	if privileged || job.startedBy == stopperID {
		job.cancel()
	}
	return ""
}

func (s *SpamService) HandleStop(ctx context.Context, chatID, stopperID int64, privileged bool) error {
	if reply := s.Stop(chatID, stopperID, privileged); reply != "" {
		return s.messenger.SendText(ctx, chatID, text(reply))
	}
	return nil
}

// Shutdown cancels every job and waits for them to return.
func (s *SpamService) Shutdown() {
	s.mu.Lock()
	for _, job := range s.jobs {
		job.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}
