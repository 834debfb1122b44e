package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dicebox/dicebox-go/internal/phys"
	"github.com/dicebox/dicebox-go/internal/playback"
	"github.com/dicebox/dicebox-go/internal/rng"
	"github.com/dicebox/dicebox-go/internal/scan"
	"github.com/dicebox/dicebox-go/internal/sim"
	"github.com/dicebox/dicebox-go/internal/store"
)

// newResolver builds a fresh world and resolver for one request. Worlds
// hold mutable body state, so concurrent requests never share one.
func (s *Server) newResolver(n int) *sim.Resolver {
	world := phys.NewWorld(s.physCfg, n, s.scenCfg.DieHalfExtent)
	return sim.NewResolver(world, s.resCfg, s.scenCfg, s.logger)
}

// handleRoll resolves one seeded roll and records it in the history.
func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	var req RollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "Invalid JSON format", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := ValidateRollRequest(&req, s.cfg.DiceMax); err != nil {
		s.errorHandler.HandleValidationError(w, r, "roll", err.Error())
		return
	}
	// The seed is optional; an omitted one is drawn from OS entropy and
	// echoed back so the roll stays replayable.
	if req.Seed == "" {
		req.Seed = rng.RandomSeed()
	}

	out, err := s.newResolver(req.Dice).Resolve(r.Context(), req.Seed, req.Nonce, req.Dice)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.writeError(w, http.StatusRequestTimeout, ErrTypeTimeout, "Roll resolution cancelled", nil)
			return
		}
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	roll := &store.Roll{
		Seed:          req.Seed,
		Nonce:         req.Nonce,
		DiceCount:     req.Dice,
		Faces:         out.Faces,
		Desired:       req.Desired,
		Report:        out.Report,
		Steps:         out.Trajectory.Steps(),
		Retries:       out.Retries,
		TimedOut:      out.TimedOut,
		EngineVersion: EngineVersion,
	}
	if err := s.db.SaveRoll(roll); err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.logger.Printf(
		"roll_completed id=%s nonce=%d dice=%d report=%s steps=%d retries=%d timed_out=%t",
		roll.ID, req.Nonce, req.Dice, out.Report, roll.Steps, out.Retries, out.TimedOut,
	)

	s.writeJSON(w, http.StatusOK, RollResponse{
		ID:            roll.ID,
		Seed:          req.Seed,
		Nonce:         req.Nonce,
		Faces:         out.Faces,
		Total:         faceTotal(out.Faces),
		Report:        out.Report,
		Desired:       req.Desired,
		Steps:         roll.Steps,
		Retries:       out.Retries,
		TimedOut:      out.TimedOut,
		EngineVersion: EngineVersion,
	})
}

// handleListRolls returns the paginated roll history.
func (s *Server) handleListRolls(w http.ResponseWriter, r *http.Request) {
	q := store.RollsQuery{
		Seed:    r.URL.Query().Get("seed"),
		Page:    queryInt(r, "page"),
		PerPage: queryInt(r, "per_page"),
	}
	list, err := s.db.ListRolls(q)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, RollsResponse{
		Rolls:         list.Rolls,
		TotalCount:    list.TotalCount,
		Page:          list.Page,
		PerPage:       list.PerPage,
		TotalPages:    list.TotalPages,
		EngineVersion: EngineVersion,
	})
}

// handleGetRoll returns one roll by ID.
func (s *Server) handleGetRoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	roll, err := s.db.GetRoll(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, ErrTypeRollNotFound, "Roll not found", map[string]interface{}{
				"id": id,
			})
			return
		}
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, roll)
}

// handleRollFrames replays a stored roll and streams it as an animated
// WebP. The trajectory is not persisted; it is reproduced from the seed
// and nonce, which the determinism of the pipeline guarantees is
// identical to the original.
func (s *Server) handleRollFrames(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	roll, err := s.db.GetRoll(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeError(w, http.StatusNotFound, ErrTypeRollNotFound, "Roll not found", map[string]interface{}{
				"id": id,
			})
			return
		}
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	mode := playback.ModeFixedFrame
	switch r.URL.Query().Get("mode") {
	case "", "fixed":
	case "interpolated":
		mode = playback.ModeInterpolated
	default:
		s.errorHandler.HandleValidationError(w, r, "mode", "mode must be 'fixed' or 'interpolated'")
		return
	}

	out, err := s.newResolver(roll.DiceCount).Resolve(r.Context(), roll.Seed, roll.Nonce, roll.DiceCount)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	exp := s.exportFrames(out, roll.Desired, mode)

	var buf bytes.Buffer
	if err := exp.EncodeWebP(&buf); err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Frame-Count", strconv.Itoa(exp.Len()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Printf("frames_write_failed id=%s error=%v", id, err)
	}
}

// exportFrames replays an outcome synchronously: the queue scheduler
// runs each refresh immediately and a synthetic clock advances one
// display interval per frame, so both playback modes export without
// waiting on wall time.
func (s *Server) exportFrames(out *sim.RollOutcome, desired []int, mode playback.Mode) *playback.Exporter {
	sched := &playback.QueueScheduler{}
	player := playback.NewPlayer(sched, s.logger)

	cur := time.Unix(0, 0)
	player.SetClock(func() time.Time { return cur })

	exp := playback.NewExporter()
	half := s.scenCfg.DieHalfExtent
	player.Play(out, playback.Options{
		Mode:    mode,
		Desired: desired,
		Render: func(poses []sim.Pose) image.Image {
			return s.renderer.Frame(poses, half)
		},
		Export: exp,
	})
	for sched.RunNext() {
		cur = cur.Add(time.Second / playback.SimRate)
	}
	return exp
}

// handleScan searches a nonce range for rolls matching a target.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, ErrTypeValidation, "Invalid JSON format", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := ValidateScanRequest(&req, s.cfg.DiceMax); err != nil {
		s.errorHandler.HandleValidationError(w, r, "scan", err.Error())
		return
	}
	if req.TimeoutMs == 0 {
		req.TimeoutMs = 30000
	}

	s.logger.Printf(
		"scan_request nonce_range=%d-%d dice=%d op=%s limit=%d timeout_ms=%d",
		req.NonceStart, req.NonceEnd, req.DiceCount, req.Target.Op, req.Limit, req.TimeoutMs,
	)

	result, err := s.scanner.Scan(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		errType := ErrTypeInternal
		switch {
		case errors.Is(err, scan.ErrInvalidRange), errors.Is(err, scan.ErrInvalidDice), errors.Is(err, scan.ErrUnknownOp):
			status = http.StatusBadRequest
			errType = ErrTypeValidation
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			status = http.StatusRequestTimeout
			errType = ErrTypeTimeout
		}
		s.writeError(w, status, errType, err.Error(), nil)
		return
	}

	s.writeJSON(w, http.StatusOK, ScanResponse{
		Hits:          result.Hits,
		Summary:       result.Summary,
		EngineVersion: EngineVersion,
		Echo:          result.Echo,
	})
}

// handleVersion reports build version information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

func faceTotal(faces []int) int {
	sum := 0
	for _, f := range faces {
		sum += f
	}
	return sum
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
