package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/finbloc/payblock/app/models"
)

const postgresImage = "postgres:16-alpine"

type BlockRepositorySuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	container *tcPostgres.PostgresContainer
	db        *gorm.DB
	repos     *Repositories
	reasons   map[string]models.BlockReason
}

func TestBlockRepositorySuite(t *testing.T) {
	suite.Run(t, new(BlockRepositorySuite))
}

func (s *BlockRepositorySuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Minute)

	container, err := tcPostgres.Run(s.ctx,
		postgresImage,
		tcPostgres.WithDatabase("payblock_test"),
		tcPostgres.WithUsername("payblock"),
		tcPostgres.WithPassword("payblock"),
		tcPostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.BlockReason{},
		&models.PaymentBlock{},
		&models.BlockHistory{},
	))
	s.Require().NoError(db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_blocks_active_client
		ON payment_blocks (client_id)
		WHERE status = 'active' AND expires_at IS NULL AND override = false`).Error)

	s.db = db
	s.repos = NewRepositories(db)
}

func (s *BlockRepositorySuite) TearDownSuite() {
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *BlockRepositorySuite) SetupTest() {
	s.Require().NoError(s.db.Exec(
		`TRUNCATE TABLE block_histories, payment_blocks, clients, block_reasons RESTART IDENTITY CASCADE`,
	).Error)

	s.reasons = map[string]models.BlockReason{}
	for _, seed := range []models.BlockReason{
		{Code: models.REASON_FRAUD_SUSPICION, Description: "Suspected fraudulent activity", IsFraud: true},
		{Code: models.REASON_INVALID_DETAILS, Description: "Invalid payment details"},
		{Code: models.REASON_OTHER, Description: "Other reasons"},
	} {
		reason := seed
		s.Require().NoError(s.repos.Reason.Create(&reason))
		s.reasons[reason.Code] = reason
	}
}

func (s *BlockRepositorySuite) blockRequest(identifier, reasonCode string) BlockRequest {
	return BlockRequest{
		ClientIdentifier: identifier,
		ReasonID:         s.reasons[reasonCode].ID,
		Notes:            "wire pattern flagged",
		CreatedBy:        "alice",
	}
}

func (s *BlockRepositorySuite) historyOf(blockID uint) []models.BlockHistory {
	var entries []models.BlockHistory
	s.Require().NoError(s.db.Where("block_id = ?", blockID).
		Order("timestamp ASC, id ASC").
		Find(&entries).Error)
	return entries
}

func (s *BlockRepositorySuite) TestBlockUnblockRoundTrip() {
	block, err := s.repos.Block.Block(s.blockRequest("7701234567", models.REASON_FRAUD_SUSPICION))
	s.Require().NoError(err)
	s.Equal(models.BLOCK_STATUS_ACTIVE, block.Status)
	s.Equal("alice", block.CreatedBy)
	s.NotZero(block.ClientID)
	s.Equal("7701234567", block.Client.ClientIdentifier)

	active, err := s.repos.Block.ActiveForClient(block.ClientID)
	s.Require().NoError(err)
	s.Equal(block.ID, active.ID)

	lifted, err := s.repos.Block.UnblockClient(block.ClientID, "bob", "dispute resolved")
	s.Require().NoError(err)
	s.Equal(models.BLOCK_STATUS_INACTIVE, lifted.Status)
	s.Equal("bob", lifted.UnblockedBy)
	s.NotNil(lifted.UnblockedAt)

	_, err = s.repos.Block.ActiveForClient(block.ClientID)
	s.ErrorIs(err, ErrNoActiveBlock)

	entries := s.historyOf(block.ID)
	s.Require().Len(entries, 2)
	s.Equal(models.HISTORY_ACTION_CREATED, entries[0].Action)
	s.Nil(entries[0].StatusBefore)
	s.Equal(models.BLOCK_STATUS_ACTIVE, entries[0].StatusAfter)
	s.Equal(models.HISTORY_ACTION_UNBLOCKED, entries[1].Action)
	s.Equal(models.BLOCK_STATUS_INACTIVE, entries[1].StatusAfter)
	s.Equal("dispute resolved", entries[1].Notes)
}

func (s *BlockRepositorySuite) TestSecondBlockConflicts() {
	_, err := s.repos.Block.Block(s.blockRequest("7701234567", models.REASON_OTHER))
	s.Require().NoError(err)

	_, err = s.repos.Block.Block(s.blockRequest("7701234567", models.REASON_FRAUD_SUSPICION))
	s.ErrorIs(err, ErrAlreadyBlocked)

	forced := s.blockRequest("7701234567", models.REASON_FRAUD_SUSPICION)
	forced.Force = true
	block, err := s.repos.Block.Block(forced)
	s.Require().NoError(err)
	s.True(block.Override)

	blocks, err := s.repos.Block.ListForClient(block.ClientID)
	s.Require().NoError(err)
	s.Len(blocks, 2)
}

func (s *BlockRepositorySuite) TestUnblockInactiveRejected() {
	block, err := s.repos.Block.Block(s.blockRequest("7701234567", models.REASON_OTHER))
	s.Require().NoError(err)

	_, err = s.repos.Block.Unblock(block.ID, "bob", "")
	s.Require().NoError(err)

	_, err = s.repos.Block.Unblock(block.ID, "bob", "")
	s.ErrorIs(err, ErrBlockNotActive)

	_, err = s.repos.Block.UnblockClient(block.ClientID, "bob", "")
	s.ErrorIs(err, ErrNoActiveBlock)

	s.Len(s.historyOf(block.ID), 2, "a rejected lift must not append history")
}

func (s *BlockRepositorySuite) TestNoOpUpdateWritesNoHistory() {
	block, err := s.repos.Block.Block(s.blockRequest("7701234567", models.REASON_OTHER))
	s.Require().NoError(err)

	sameNotes := block.Notes
	_, _, err = s.repos.Block.Update(block.ID, BlockPatch{Notes: &sameNotes}, "alice")
	s.ErrorIs(err, ErrNoChange)

	s.Len(s.historyOf(block.ID), 1)
}

func (s *BlockRepositorySuite) TestUpdateWritesSingleHistoryEntry() {
	block, err := s.repos.Block.Block(s.blockRequest("7701234567", models.REASON_OTHER))
	s.Require().NoError(err)

	newNotes := "escalated after review"
	fraudID := s.reasons[models.REASON_FRAUD_SUSPICION].ID
	updated, changes, err := s.repos.Block.Update(block.ID, BlockPatch{
		ReasonID: &fraudID,
		Notes:    &newNotes,
	}, "bob")
	s.Require().NoError(err)
	s.Len(changes, 2)
	s.Equal(fraudID, updated.ReasonID)

	entries := s.historyOf(block.ID)
	s.Require().Len(entries, 2)
	s.Equal(models.HISTORY_ACTION_UPDATED, entries[1].Action)
	s.Contains(entries[1].Notes, "Reason changed from other to fraud_suspicion")
	s.Contains(entries[1].Notes, "Notes updated")
}

func (s *BlockRepositorySuite) TestUpdateRejectsExpiredBlock() {
	past := time.Now().Add(-time.Hour)
	req := s.blockRequest("7701234567", models.REASON_OTHER)
	req.ExpiresAt = &past
	block, err := s.repos.Block.Block(req)
	s.Require().NoError(err)

	_, err = s.repos.Block.ActiveForClient(block.ClientID)
	s.ErrorIs(err, ErrNoActiveBlock)

	// Pushing the expiry forward must not resurrect an expired block.
	future := time.Now().Add(24 * time.Hour)
	_, _, err = s.repos.Block.Update(block.ID, BlockPatch{ExpiresAt: &future}, "alice")
	s.ErrorIs(err, ErrBlockNotActive)

	_, err = s.repos.Block.ActiveForClient(block.ClientID)
	s.ErrorIs(err, ErrNoActiveBlock)
	s.Len(s.historyOf(block.ID), 1)
}

func (s *BlockRepositorySuite) TestExpiredBlockAllowsReblock() {
	past := time.Now().Add(-time.Hour)
	req := s.blockRequest("7701234567", models.REASON_OTHER)
	req.ExpiresAt = &past
	_, err := s.repos.Block.Block(req)
	s.Require().NoError(err)

	block, err := s.repos.Block.Block(s.blockRequest("7701234567", models.REASON_FRAUD_SUSPICION))
	s.Require().NoError(err)
	s.False(block.Override)

	active, err := s.repos.Block.ActiveForClient(block.ClientID)
	s.Require().NoError(err)
	s.Equal(block.ID, active.ID)
}

func (s *BlockRepositorySuite) TestConcurrentFirstContact() {
	const workers = 8

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.repos.Block.Block(s.blockRequest("5509876543", models.REASON_FRAUD_SUSPICION))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, ErrAlreadyBlocked)
		}
	}
	s.Equal(1, succeeded, "exactly one concurrent block may win")

	var clients int64
	s.Require().NoError(s.db.Model(&models.Client{}).
		Where("client_identifier = ?", "5509876543").
		Count(&clients).Error)
	s.Equal(int64(1), clients)

	var active int64
	s.Require().NoError(s.db.Model(&models.PaymentBlock{}).
		Where("status = ?", models.BLOCK_STATUS_ACTIVE).
		Count(&active).Error)
	s.Equal(int64(1), active)
}

func (s *BlockRepositorySuite) TestAutoRegisterValidation() {
	identifier := ""
	for len(identifier) <= 50 {
		identifier += "7701234567"
	}

	_, err := s.repos.Block.Block(s.blockRequest(identifier, models.REASON_OTHER))
	s.ErrorIs(err, ErrValidation)

	var clients int64
	s.Require().NoError(s.db.Model(&models.Client{}).Count(&clients).Error)
	s.Zero(clients, "a rejected auto-registration must not persist a client")
}
