package contracts_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel0ar/maci-platform/internal/adapters/repository/contracts"
	"github.com/daniel0ar/maci-platform/internal/domain"
	"github.com/daniel0ar/maci-platform/internal/domain/models"
)

func TestFileRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("register and look up", func(t *testing.T) {
		tmpDir := t.TempDir()
		repo, err := contracts.NewFileRepository(tmpDir)
		require.NoError(t, err)

		record := &models.ContractRecord{
			Network: "optimism-sepolia",
			ChainID: 11155420,
			Name:    models.PoseidonT3,
			Address: "0x1234567890123456789012345678901234567890",
			Args:    []string{},
			TxHash:  "0xabc",
		}

		require.NoError(t, repo.Register(ctx, record))

		addr, err := repo.MustGetAddress(ctx, "optimism-sepolia", "PoseidonT3")
		require.NoError(t, err)
		assert.Equal(t, record.Address, addr.Hex())

		addr, ok, err := repo.TryGetAddress(ctx, "optimism-sepolia", "PoseidonT3")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, record.Address, addr.Hex())
	})

	t.Run("missing dependency", func(t *testing.T) {
		tmpDir := t.TempDir()
		repo, err := contracts.NewFileRepository(tmpDir)
		require.NoError(t, err)

		_, err = repo.MustGetAddress(ctx, "optimism-sepolia", "VkRegistry")
		assert.ErrorIs(t, err, domain.ErrMissingDependency)

		var depErr *domain.MissingDependencyError
		require.ErrorAs(t, err, &depErr)
		assert.Equal(t, "VkRegistry", depErr.Contract)
		assert.Equal(t, "optimism-sepolia", depErr.Network)

		_, ok, err := repo.TryGetAddress(ctx, "optimism-sepolia", "VkRegistry")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("duplicate unlabeled registration fails", func(t *testing.T) {
		tmpDir := t.TempDir()
		repo, err := contracts.NewFileRepository(tmpDir)
		require.NoError(t, err)

		first := &models.ContractRecord{
			Network: "localhost",
			ChainID: 31337,
			Name:    models.MACI,
			Address: "0x1111111111111111111111111111111111111111",
		}
		require.NoError(t, repo.Register(ctx, first))

		second := &models.ContractRecord{
			Network: "localhost",
			ChainID: 31337,
			Name:    models.MACI,
			Address: "0x2222222222222222222222222222222222222222",
		}
		err = repo.Register(ctx, second)
		assert.ErrorIs(t, err, domain.ErrDuplicateRecord)

		// The original address is untouched
		addr, err := repo.MustGetAddress(ctx, "localhost", "MACI")
		require.NoError(t, err)
		assert.Equal(t, first.Address, addr.Hex())
	})

	t.Run("label disambiguates multiple instances", func(t *testing.T) {
		tmpDir := t.TempDir()
		repo, err := contracts.NewFileRepository(tmpDir)
		require.NoError(t, err)

		unlabeled := &models.ContractRecord{
			Network: "localhost",
			ChainID: 31337,
			Name:    "EASGatekeeper",
			Address: "0x1111111111111111111111111111111111111111",
		}
		labeled := &models.ContractRecord{
			Network: "localhost",
			ChainID: 31337,
			Name:    "EASGatekeeper",
			Label:   "resident",
			Address: "0x2222222222222222222222222222222222222222",
		}

		require.NoError(t, repo.Register(ctx, unlabeled))
		require.NoError(t, repo.Register(ctx, labeled))

		addr, err := repo.MustGetAddress(ctx, "localhost", "EASGatekeeper:resident")
		require.NoError(t, err)
		assert.Equal(t, labeled.Address, addr.Hex())
	})

	t.Run("refuses zero address", func(t *testing.T) {
		tmpDir := t.TempDir()
		repo, err := contracts.NewFileRepository(tmpDir)
		require.NoError(t, err)

		err = repo.Register(ctx, &models.ContractRecord{
			Network: "localhost",
			Name:    models.Verifier,
			Address: "0x0000000000000000000000000000000000000000",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})

	t.Run("networks are isolated", func(t *testing.T) {
		tmpDir := t.TempDir()
		repo, err := contracts.NewFileRepository(tmpDir)
		require.NoError(t, err)

		require.NoError(t, repo.Register(ctx, &models.ContractRecord{
			Network: "optimism-sepolia",
			ChainID: 11155420,
			Name:    models.Verifier,
			Address: "0x3333333333333333333333333333333333333333",
		}))

		_, ok, err := repo.TryGetAddress(ctx, "localhost", "Verifier")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("list with filters", func(t *testing.T) {
		tmpDir := t.TempDir()
		repo, err := contracts.NewFileRepository(tmpDir)
		require.NoError(t, err)

		records := []*models.ContractRecord{
			{Network: "localhost", ChainID: 31337, Name: models.PoseidonT3, Address: "0x1111111111111111111111111111111111111111"},
			{Network: "localhost", ChainID: 31337, Name: models.PoseidonT4, Address: "0x2222222222222222222222222222222222222222"},
			{Network: "optimism-sepolia", ChainID: 11155420, Name: models.PoseidonT3, Address: "0x3333333333333333333333333333333333333333"},
		}
		for _, rec := range records {
			require.NoError(t, repo.Register(ctx, rec))
		}

		tests := []struct {
			name     string
			filter   models.ContractFilter
			expected int
		}{
			{"all", models.ContractFilter{}, 3},
			{"by network", models.ContractFilter{Network: "localhost"}, 2},
			{"by name", models.ContractFilter{Name: models.PoseidonT3}, 2},
			{"by network and name", models.ContractFilter{Network: "localhost", Name: models.PoseidonT3}, 1},
			{"by chain", models.ContractFilter{ChainID: 11155420}, 1},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				result, err := repo.ListContracts(ctx, tt.filter)
				require.NoError(t, err)
				assert.Len(t, result, tt.expected)
			})
		}
	})

	t.Run("wiring idempotency", func(t *testing.T) {
		tmpDir := t.TempDir()
		repo, err := contracts.NewFileRepository(tmpDir)
		require.NoError(t, err)

		done, err := repo.HasWiring(ctx, "localhost", "MACI.setVkRegistry")
		require.NoError(t, err)
		assert.False(t, done)

		require.NoError(t, repo.RegisterWiring(ctx, &models.WiringRecord{
			Network: "localhost",
			Key:     "MACI.setVkRegistry",
			Target:  "0x1111111111111111111111111111111111111111",
			TxHash:  "0xdef",
		}))

		done, err = repo.HasWiring(ctx, "localhost", "MACI.setVkRegistry")
		require.NoError(t, err)
		assert.True(t, done)

		// Re-registering the same key is a no-op
		require.NoError(t, repo.RegisterWiring(ctx, &models.WiringRecord{
			Network: "localhost",
			Key:     "MACI.setVkRegistry",
			Target:  "0x1111111111111111111111111111111111111111",
		}))
	})
}

func TestFileRepository_PersistenceAcrossInstances(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	repo1, err := contracts.NewFileRepository(tmpDir)
	require.NoError(t, err)

	record := &models.ContractRecord{
		Network: "optimism-sepolia",
		ChainID: 11155420,
		Name:    models.VkRegistry,
		Address: "0x8888888888888888888888888888888888888888",
		Args:    []string{"@Verifier"},
	}
	require.NoError(t, repo1.Register(ctx, record))
	require.NoError(t, repo1.RegisterWiring(ctx, &models.WiringRecord{
		Network: "optimism-sepolia",
		Key:     "VkRegistry.setVerifyingKeysBatch",
	}))

	// A fresh instance sees the same state
	repo2, err := contracts.NewFileRepository(tmpDir)
	require.NoError(t, err)

	addr, err := repo2.MustGetAddress(ctx, "optimism-sepolia", "VkRegistry")
	require.NoError(t, err)
	assert.Equal(t, record.Address, addr.Hex())

	rec, err := repo2.GetContract(ctx, "optimism-sepolia", "VkRegistry")
	require.NoError(t, err)
	assert.Equal(t, record.Args, rec.Args)

	done, err := repo2.HasWiring(ctx, "optimism-sepolia", "VkRegistry.setVerifyingKeysBatch")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestFileRepository_FileStructure(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()

	repo, err := contracts.NewFileRepository(tmpDir)
	require.NoError(t, err)

	require.NoError(t, repo.Register(ctx, &models.ContractRecord{
		Network: "localhost",
		ChainID: 31337,
		Name:    models.Verifier,
		Address: "0x9999999999999999999999999999999999999999",
	}))

	dataDir := filepath.Join(tmpDir, ".maci")
	assert.DirExists(t, dataDir)
	assert.FileExists(t, filepath.Join(dataDir, "contracts.json"))
	assert.FileExists(t, filepath.Join(dataDir, "wirings.json"))
}
