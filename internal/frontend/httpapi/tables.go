package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cory-johannsen/kniffel/internal/export"
	"github.com/cory-johannsen/kniffel/internal/game/dice"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
)

func (h *Handler) getSheet(w http.ResponseWriter, _ *http.Request) {
	out := sheetResponse{Name: h.sheet.Name, Rows: make([]sheetRow, 0, scoreboard.NumCategories)}
	for _, c := range scoreboard.Categories() {
		row := h.sheet.Row(c)
		out.Rows = append(out.Rows, sheetRow{
			Row:        int(c) + 1,
			Key:        row.Key,
			Label:      row.Label,
			Hint:       row.Hint,
			Kind:       c.Kind().String(),
			FixedValue: c.FixedValue(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listTables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tableListResponse{Tables: h.tables.IDs()})
}

func (h *Handler) createTable(w http.ResponseWriter, _ *http.Request) {
	t, err := h.tables.Open(OriginHTTP)
	if err != nil {
		fail(w, err)
		return
	}
	w.Header().Set("Location", "/tables/"+t.ID)
	writeJSON(w, http.StatusCreated, t.Snapshot())
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, tableFrom(r).Snapshot())
}

func (h *Handler) deleteTable(w http.ResponseWriter, r *http.Request) {
	if err := h.tables.Close(tableFrom(r).ID); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resetTable(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	_ = t.Update(func(sb *scoreboard.Scoreboard, d *dice.Set) error {
		sb.Reset()
		d.Reset()
		return nil
	})
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *Handler) scorecardPDF(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	doc, err := export.ScorecardPDF(h.sheet, t.Snapshot().Scoreboard)
	if err != nil {
		h.logger.Error("exporting scorecard", zap.String("table", t.ID), zap.Error(err))
		fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "kniffel-"+t.ID+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) addPlayer(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	_, snap, err := t.AddPlayer()
	if err != nil {
		fail(w, fmt.Errorf("%w: table seats at most %d players", err, t.MaxPlayers()))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) removePlayer(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	err := t.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
		if !sb.RemovePlayer() {
			return fmt.Errorf("%w: there are no players to remove", errConflict)
		}
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *Handler) renamePlayer(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	p, err := indexParam(r, "player")
	if err != nil {
		fail(w, err)
		return
	}
	req, err := decode[renameRequest](r.Body)
	if err != nil {
		fail(w, err)
		return
	}
	err = t.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
		return sb.SetPlayerName(p, req.Name)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *Handler) setCell(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	c, p, err := h.cellParams(r)
	if err != nil {
		fail(w, err)
		return
	}
	req, err := decode[setCellRequest](r.Body)
	if err != nil {
		fail(w, err)
		return
	}
	cell := scoreboard.Empty()
	if req.Value != nil {
		if *req.Value < 0 || *req.Value > scoreboard.MaxScore {
			fail(w, fmt.Errorf("%w: value must be between 0 and %d, got %d", errBadRequest, scoreboard.MaxScore, *req.Value))
			return
		}
		cell = scoreboard.Value(*req.Value)
	}
	err = t.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
		return sb.SetCell(c, p, cell)
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *Handler) cycleCell(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	c, p, err := h.cellParams(r)
	if err != nil {
		fail(w, err)
		return
	}
	err = t.Update(func(sb *scoreboard.Scoreboard, _ *dice.Set) error {
		_, err := sb.CycleFixedCategory(c, p)
		return err
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *Handler) roll(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	err := t.Update(func(_ *scoreboard.Scoreboard, d *dice.Set) error {
		res, ok := d.Roll()
		if !ok {
			return fmt.Errorf("%w: no rolls left this turn (%d/%d)", errConflict, dice.MaxRolls, dice.MaxRolls)
		}
		h.logger.Debug("http roll", zap.String("table", t.ID), zap.Stringer("roll", res))
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *Handler) hold(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	i, err := indexParam(r, "die")
	if err != nil {
		fail(w, err)
		return
	}
	err = t.Update(func(_ *scoreboard.Scoreboard, d *dice.Set) error {
		if !h.holdBeforeFirstRoll && d.RollCount() == 0 {
			return fmt.Errorf("%w: roll the dice before holding any", errConflict)
		}
		_, err := d.ToggleHold(i)
		return err
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *Handler) resetDice(w http.ResponseWriter, r *http.Request) {
	t := tableFrom(r)
	_ = t.Update(func(_ *scoreboard.Scoreboard, d *dice.Set) error {
		d.Reset()
		return nil
	})
	writeJSON(w, http.StatusOK, t.Snapshot())
}

// cellParams resolves {category} (sheet key or 1-based row) and {player} (0-based).
func (h *Handler) cellParams(r *http.Request) (scoreboard.Category, int, error) {
	c, err := h.sheet.Lookup(chi.URLParam(r, "category"))
	if err != nil {
		if !errors.Is(err, scoreboard.ErrCategoryOutOfRange) {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return 0, 0, err
	}
	p, err := indexParam(r, "player")
	if err != nil {
		return 0, 0, err
	}
	return c, p, nil
}

// indexParam parses a 0-based path index; range checks are left to the models.
func indexParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errBadRequest, name, raw)
	}
	return n, nil
}
