package boltstore_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	bolt "go.etcd.io/bbolt"

	"cardbank/internal/banking/domain"
	"cardbank/internal/banking/infrastructure/boltstore"
	vo "cardbank/internal/common/value_objects"
)

// StoreSuite tests the bbolt-backed account store on a temporary database file.
type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	path  string
	store *boltstore.Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.path = filepath.Join(s.T().TempDir(), "accounts.db")

	store, err := boltstore.Open(s.path)
	s.Require().NoError(err)
	s.store = store
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StoreSuite) account(card, phone, balance string) *domain.Account {
	return domain.ReconstructAccount(domain.MustParseCardNumber(card),
		"John", "Doe", 30, phone, vo.MustParse(balance), "$2a$10$hash")
}

func (s *StoreSuite) TestLoadEmpty() {
	loaded, err := s.store.Load(s.ctx)
	s.NoError(err)
	s.Empty(loaded)
}

func (s *StoreSuite) TestRoundTripKeepsOrder() {
	accounts := []*domain.Account{
		s.account("3333-3333-3333-3333", "+493333333333", "30.25"),
		s.account("1111-1111-1111-1111", "+491111111111", "10"),
		s.account("2222-2222-2222-2222", "+492222222222", "0"),
	}
	s.Require().NoError(s.store.Save(s.ctx, accounts))

	loaded, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(loaded, 3)
	for i := range accounts {
		s.Equal(accounts[i].CardNumber(), loaded[i].CardNumber())
		s.Equal(accounts[i].PhoneNumber(), loaded[i].PhoneNumber())
		s.Equal(accounts[i].PasswordHash(), loaded[i].PasswordHash())
		s.True(accounts[i].Balance().Equal(loaded[i].Balance()))
	}
}

func (s *StoreSuite) TestSaveOverwrites() {
	s.Require().NoError(s.store.Save(s.ctx, []*domain.Account{
		s.account("1111-1111-1111-1111", "+491111111111", "10"),
		s.account("2222-2222-2222-2222", "+492222222222", "20"),
	}))
	s.Require().NoError(s.store.Save(s.ctx, []*domain.Account{
		s.account("2222-2222-2222-2222", "+492222222222", "25"),
	}))

	loaded, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(loaded, 1)
	s.Equal("25.00", loaded[0].Balance().String())
}

func (s *StoreSuite) TestSurvivesReopen() {
	s.Require().NoError(s.store.Save(s.ctx, []*domain.Account{
		s.account("1111-1111-1111-1111", "+491111111111", "10"),
	}))
	s.Require().NoError(s.store.Close())

	reopened, err := boltstore.Open(s.path)
	s.Require().NoError(err)
	s.store = reopened

	loaded, err := s.store.Load(s.ctx)
	s.Require().NoError(err)
	s.Len(loaded, 1)
}

func (s *StoreSuite) TestCorruptRecordIsUnreadable() {
	s.Require().NoError(s.store.Close())

	db, err := bolt.Open(s.path, 0o600, nil)
	s.Require().NoError(err)
	s.Require().NoError(db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte("accounts")).Put([]byte{0, 0, 0, 0, 0, 0, 0, 0}, []byte("{not json"))
	}))
	s.Require().NoError(db.Close())

	reopened, err := boltstore.Open(s.path)
	s.Require().NoError(err)
	s.store = reopened

	_, err = s.store.Load(s.ctx)
	s.ErrorIs(err, domain.ErrStoreUnreadable)
}
