package proceeds

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle/internal/asset"
)

func standard(t *testing.T) Edition {
	t.Helper()
	editions, err := LoadEditions("")
	require.NoError(t, err)
	edition, ok := editions.Get("standard")
	require.True(t, ok)
	return edition
}

func amounts(instructions []Instruction, purpose Purpose) []string {
	var out []string
	for _, in := range instructions {
		if in.Purpose == purpose {
			out = append(out, in.Amount.String())
		}
	}
	return out
}

func TestDistributeEvenPartition(t *testing.T) {
	ton := asset.Native("nanoton")
	settlement, summary := Distribute(Input{
		Winner:      "winner",
		Prizes:      []asset.Prize{asset.TokenPrize(asset.NewAmount(ton, 5000))},
		Price:       asset.NewAmount(ton, 100),
		TicketsSold: 10,
		Edition:     standard(t),
		Royalties: []Royalty{
			{Name: "artist", Address: "artist", Pct: 60},
			{Name: "charity", Address: "charity", Pct: 40},
		},
	})

	assert.Equal(t, "1000", summary.Pot.String())
	assert.Equal(t, "100", summary.Tax.String())
	assert.Equal(t, "900", summary.Royalties.String())
	assert.True(t, summary.Retained.IsZero())

	require.Empty(t, settlement.Custom)
	all := settlement.All()
	require.Len(t, all, 6)
	assert.Equal(t, "winner", all[0].Recipient)
	assert.Equal(t, PurposePrize, all[0].Purpose)
	assert.True(t, all[0].Amount.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, []string{"20", "50", "30"}, amounts(all, PurposeTax))
	assert.Equal(t, []string{"540", "360"}, amounts(all, PurposeRoyalty))
	assert.Equal(t, "charity", all[5].Recipient)
}

func TestDistributeIndivisibleRemainder(t *testing.T) {
	ton := asset.Native("nanoton")
	royalties := []Royalty{{Address: "a", Pct: 60}, {Address: "b", Pct: 40}}
	_, summary := Distribute(Input{
		Winner:      "w",
		Price:       asset.NewAmount(ton, 7),
		TicketsSold: 13,
		Edition:     standard(t),
		Royalties:   royalties,
	})

	assert.Equal(t, "91", summary.Pot.String())
	assert.Equal(t, "7", summary.Tax.String())
	assert.Equal(t, "83", summary.Royalties.String())
	assert.Equal(t, "1", summary.Retained.String())

	distributed := summary.Tax.Add(summary.Royalties)
	assert.True(t, distributed.LessThanOrEqual(summary.Pot))
	recipients := len(standard(t).Beneficiaries) + len(royalties)
	assert.True(t, summary.Retained.LessThan(decimal.NewFromInt(int64(recipients))))
}

func TestDistributeCustomToken(t *testing.T) {
	usdt := asset.Custom("0:jetton-wallet")
	settlement, _ := Distribute(Input{
		Winner: "w",
		Prizes: []asset.Prize{
			asset.TokenPrize(asset.NewAmount(asset.Native("nanoton"), 1)),
			asset.ItemPrize("0:collection", "0:item"),
			asset.OffchainPrize("car", ""),
		},
		Price:       asset.NewAmount(usdt, 1000),
		TicketsSold: 3,
		Edition:     standard(t),
		Royalties:   []Royalty{{Address: "r", Pct: 100}},
	})

	require.Len(t, settlement.Native, 1)
	require.Len(t, settlement.Custom, 5)
	assert.Equal(t, "0:item", settlement.Custom[0].Item)
	for _, in := range settlement.Custom[1:] {
		assert.Equal(t, usdt, in.Token)
	}
	assert.Equal(t, "2700", settlement.Custom[4].Amount.String())
}

func TestDistributeOmitsZeroCuts(t *testing.T) {
	settlement, summary := Distribute(Input{
		Winner:      "w",
		Price:       asset.NewAmount(asset.Native("nanoton"), 1),
		TicketsSold: 1,
		Edition:     standard(t),
		Royalties:   []Royalty{{Address: "r", Pct: 50}},
	})
	assert.Zero(t, settlement.Len())
	assert.Equal(t, "1", summary.Retained.String())
}

func TestValidateRoyalties(t *testing.T) {
	require.NoError(t, ValidateRoyalties(nil))
	require.NoError(t, ValidateRoyalties([]Royalty{{Address: "a", Pct: 60}, {Address: "b", Pct: 40}}))
	require.Error(t, ValidateRoyalties([]Royalty{{Address: "a", Pct: 60}, {Address: "b", Pct: 41}}))
	require.Error(t, ValidateRoyalties([]Royalty{{Address: "a", Pct: 0}}))
	require.Error(t, ValidateRoyalties([]Royalty{{Pct: 1}}))
}

func TestEditions(t *testing.T) {
	editions, err := LoadEditions("")
	require.NoError(t, err)
	require.Contains(t, editions, "standard")
	require.Contains(t, editions, "partner")
	require.Contains(t, editions, "untaxed")

	_, err = ParseEditions([]byte(`
editions:
  - id: broken
    denominator: 100
    total: 10
    beneficiaries:
      - name: a
        address: "0:1"
        pct: 4
`))
	require.Error(t, err)

	_, err = ParseEditions([]byte(`
editions:
  - id: greedy
    denominator: 100
    total: 100
    beneficiaries:
      - name: a
        address: "0:1"
        pct: 100
`))
	require.Error(t, err)

	_, err = LoadEditions("/nonexistent/editions.yaml")
	require.Error(t, err)
}

func TestPrizeTransfersSkipsOffchain(t *testing.T) {
	ton := asset.Native("nanoton")
	instructions := PrizeTransfers([]asset.Prize{
		asset.OffchainPrize("dinner", "for two"),
		asset.TokenPrize(asset.NewAmount(ton, 7)),
		asset.ItemPrize("0:collection", "0:item"),
	}, "creator", PurposeReturn)

	require.Len(t, instructions, 2)
	assert.Equal(t, "7", instructions[0].Amount.String())
	assert.Equal(t, "0:item", instructions[1].Item)
	for _, in := range instructions {
		assert.Equal(t, "creator", in.Recipient)
		assert.Equal(t, PurposeReturn, in.Purpose)
	}
}
