package database

import (
	"fmt"
	"sync"

	"kanban-board-api/internal/config"
	"kanban-board-api/internal/kanban"
	"kanban-board-api/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LoadBoard reads the stored columns (in position order) and tasks.
func LoadBoard(db *gorm.DB) ([]models.Column, map[string]models.Task, error) {
	var columns []models.Column
	if err := db.Order("position asc").Find(&columns).Error; err != nil {
		return nil, nil, fmt.Errorf("load columns: %w", err)
	}
	var rows []models.Task
	if err := db.Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("load tasks: %w", err)
	}

	tasks := make(map[string]models.Task, len(rows))
	for _, t := range rows {
		tasks[t.ID] = t
	}
	for i := range columns {
		if columns[i].TaskIDs == nil {
			columns[i].TaskIDs = []string{}
		}
	}
	return columns, tasks, nil
}

// SaveBoard replaces the stored board with the given state in one transaction.
func SaveBoard(db *gorm.DB, columns []models.Column, tasks map[string]models.Task) error {
	return db.Transaction(func(tx *gorm.DB) error {
		columnIDs := make([]string, 0, len(columns))
		rows := make([]models.Column, len(columns))
		for i, c := range columns {
			c.Position = i
			rows[i] = c
			columnIDs = append(columnIDs, c.ID)
		}
		if err := deleteMissing(tx, &models.Column{}, columnIDs); err != nil {
			return fmt.Errorf("prune columns: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.Save(&rows).Error; err != nil {
				return fmt.Errorf("save columns: %w", err)
			}
		}

		taskIDs := make([]string, 0, len(tasks))
		taskRows := make([]models.Task, 0, len(tasks))
		for id, t := range tasks {
			taskIDs = append(taskIDs, id)
			taskRows = append(taskRows, t)
		}
		if err := deleteMissing(tx, &models.Task{}, taskIDs); err != nil {
			return fmt.Errorf("prune tasks: %w", err)
		}
		if len(taskRows) > 0 {
			if err := tx.Save(&taskRows).Error; err != nil {
				return fmt.Errorf("save tasks: %w", err)
			}
		}
		return nil
	})
}

func deleteMissing(tx *gorm.DB, model any, keep []string) error {
	if len(keep) == 0 {
		return tx.Where("1 = 1").Delete(model).Error
	}
	return tx.Where("id NOT IN ?", keep).Delete(model).Error
}

// LoadOrSeed returns the stored board. When no column is stored yet the board
// is seeded from boardFile, or from the default board when boardFile is empty,
// and written back.
func LoadOrSeed(db *gorm.DB, boardFile string) ([]models.Column, map[string]models.Task, error) {
	columns, tasks, err := LoadBoard(db)
	if err != nil {
		return nil, nil, err
	}
	if len(columns) > 0 {
		return columns, tasks, nil
	}

	if boardFile != "" {
		columns, tasks, err = config.LoadBoardFile(boardFile)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("file", boardFile).Info("seeding board from file")
	} else {
		columns, tasks = config.DefaultBoard()
		log.Info("seeding default board")
	}
	if err := SaveBoard(db, columns, tasks); err != nil {
		return nil, nil, err
	}
	return columns, tasks, nil
}

// Persister writes the board back to the database after every committed
// event. Snapshots older than the last saved revision are skipped.
type Persister struct {
	db    *gorm.DB
	board *kanban.Board

	mu    sync.Mutex
	saved uint64
}

// NewPersister returns a Persister for board; register it with
// board.Subscribe(p.OnEvent).
func NewPersister(db *gorm.DB, board *kanban.Board) *Persister {
	return &Persister{db: db, board: board}
}

// OnEvent saves the current board state.
func (p *Persister) OnEvent(ev kanban.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.board.Snapshot()
	if snap.Revision <= p.saved {
		return
	}
	if err := SaveBoard(p.db, snap.Columns, snap.Tasks); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":    ev.Kind,
			"task_id":  ev.TaskID,
			"revision": snap.Revision,
		}).Error("failed to persist board")
		return
	}
	p.saved = snap.Revision
}
