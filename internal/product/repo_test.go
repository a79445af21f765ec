package product_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/suite"

	"github.com/MikeMC777/storefront/internal/money"
	"github.com/MikeMC777/storefront/internal/pgtest"
	"github.com/MikeMC777/storefront/internal/product"
)

type productRepoSuite struct {
	suite.Suite

	pg   *pgtest.DB
	repo *product.PGRepo
}

func TestProductRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("needs docker")
	}
	suite.Run(t, new(productRepoSuite))
}

func (s *productRepoSuite) SetupSuite() {
	var err error
	s.pg, err = pgtest.Start(s.T().Context())
	s.Require().NoError(err)

	s.repo = product.NewPGRepo(s.pg.Pool)
}

func (s *productRepoSuite) TearDownSuite() {
	s.pg.Close()
}

func (s *productRepoSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.T().Context()))
}

func (s *productRepoSuite) TestGetByID() {
	ctx := s.T().Context()
	name := gofakeit.ProductName()
	id, err := s.pg.SeedProduct(ctx, name, "19.90", 7)
	s.Require().NoError(err)

	p, err := s.repo.GetByID(ctx, id)
	s.Require().NoError(err)
	s.Equal(name, p.Name)
	s.Equal("BRL 19.90", p.Price.String())
	s.Equal(7, p.Stock)

	_, err = s.repo.GetByID(ctx, id+1000)
	s.ErrorIs(err, product.ErrNotFound)
}

func (s *productRepoSuite) TestList() {
	ctx := s.T().Context()
	_, err := s.pg.SeedProduct(ctx, "Mechanical Keyboard", "199.90", 3)
	s.Require().NoError(err)
	_, err = s.pg.SeedProduct(ctx, "Wireless Mouse", "59.90", 0)
	s.Require().NoError(err)

	all, err := s.repo.List(ctx, product.Query{})
	s.Require().NoError(err)
	s.Len(all, 2)

	found, err := s.repo.List(ctx, product.Query{Q: "keyb"})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal("Mechanical Keyboard", found[0].Name)

	page, err := s.repo.List(ctx, product.Query{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Len(page, 1)
}

func (s *productRepoSuite) TestCurrentPriceAndUpdate() {
	ctx := s.T().Context()
	id, err := s.pg.SeedProduct(ctx, gofakeit.ProductName(), "19.90", 1)
	s.Require().NoError(err)

	price, err := s.repo.CurrentPrice(ctx, id)
	s.Require().NoError(err)
	s.Equal("19.90", price.AmountString())

	newPrice, err := money.Parse("24.90", "BRL")
	s.Require().NoError(err)
	s.Require().NoError(s.repo.UpdatePrice(ctx, id, newPrice))

	price, err = s.repo.CurrentPrice(ctx, id)
	s.Require().NoError(err)
	s.True(price.Equal(newPrice))

	_, err = s.repo.CurrentPrice(ctx, id+1000)
	s.ErrorIs(err, product.ErrNotFound)
	s.ErrorIs(s.repo.UpdatePrice(ctx, id+1000, newPrice), product.ErrNotFound)
}
