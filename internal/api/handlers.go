package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"raffle/internal/ledger"
	"raffle/internal/proceeds"
	"raffle/internal/raffle"
)

type RaffleHandler struct {
	engine *raffle.Engine
}

func NewRaffleHandler(engine *raffle.Engine) *RaffleHandler {
	return &RaffleHandler{engine: engine}
}

type CreateRequest struct {
	Env    raffle.Env    `json:"env"`
	Config raffle.Config `json:"config"`
}

type BuyTicketsRequest struct {
	Env raffle.Env `json:"env"`
	raffle.BuyRequest
}

type InvocationRequest struct {
	Env raffle.Env `json:"env"`
}

type TransferOwnershipRequest struct {
	Env      raffle.Env `json:"env"`
	Operator string     `json:"operator" binding:"required"`
}

type DrawsQuery struct {
	Count   int    `form:"count"`
	Caller  string `form:"caller"`
	Time    int64  `form:"time"`
	Height  uint64 `form:"height"`
	TxIndex uint64 `form:"tx_index"`
}

type RaffleResponse struct {
	ID        string             `json:"id"`
	Creator   string             `json:"creator"`
	Operator  string             `json:"operator"`
	Edition   string             `json:"edition"`
	Royalties []proceeds.Royalty `json:"royalties"`
	Raffle    raffle.State       `json:"raffle"`
}

func (h *RaffleHandler) Create(c *gin.Context) {
	var request CreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		RespondBadRequest(c, err)
		return
	}

	id, err := h.engine.Create(c.Request.Context(), request.Env, request.Config)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"raffle_id": id})
}

func (h *RaffleHandler) BuyTickets(c *gin.Context) {
	var request BuyTicketsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		RespondBadRequest(c, err)
		return
	}

	receipt, err := h.engine.BuyTickets(c.Request.Context(), c.Param("id"), request.Env, request.BuyRequest)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, receipt)
}

func (h *RaffleHandler) ChooseWinner(c *gin.Context) {
	var request InvocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		RespondBadRequest(c, err)
		return
	}

	outcome, err := h.engine.ChooseWinner(c.Request.Context(), c.Param("id"), request.Env)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, outcome)
}

func (h *RaffleHandler) Cancel(c *gin.Context) {
	var request InvocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		RespondBadRequest(c, err)
		return
	}

	settlement, err := h.engine.Cancel(c.Request.Context(), c.Param("id"), request.Env)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"settlement": settlement})
}

func (h *RaffleHandler) ClaimRefund(c *gin.Context) {
	var request InvocationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		RespondBadRequest(c, err)
		return
	}

	refund, err := h.engine.ClaimRefund(c.Request.Context(), c.Param("id"), request.Env)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"refund": refund})
}

func (h *RaffleHandler) TransferOwnership(c *gin.Context) {
	var request TransferOwnershipRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		RespondBadRequest(c, err)
		return
	}

	err := h.engine.TransferOwnership(c.Request.Context(), c.Param("id"), request.Env, request.Operator)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RaffleHandler) GetRaffle(c *gin.Context) {
	record, err := h.engine.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}

	royalties := record.Royalties
	if royalties == nil {
		royalties = []proceeds.Royalty{}
	}
	RespondOK(c, RaffleResponse{
		ID:        record.ID,
		Creator:   record.Creator,
		Operator:  record.Operator,
		Edition:   record.Edition,
		Royalties: royalties,
		Raffle:    record.State,
	})
}

func (h *RaffleHandler) GetOrders(c *gin.Context) {
	orders, err := h.engine.GetOrders(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	if orders == nil {
		orders = ledger.Book{}
	}
	RespondOK(c, gin.H{"orders": orders})
}

func (h *RaffleHandler) GetWallets(c *gin.Context) {
	wallets, err := h.engine.GetWallets(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	if wallets == nil {
		wallets = []ledger.Wallet{}
	}
	RespondOK(c, gin.H{"wallets": wallets})
}

func (h *RaffleHandler) GetRefundStatus(c *gin.Context) {
	claimed, err := h.engine.GetRefundStatus(c.Request.Context(), c.Param("id"), c.Param("wallet"))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"wallet": c.Param("wallet"), "has_claimed_refund": claimed})
}

func (h *RaffleHandler) SimulateDraws(c *gin.Context) {
	var query DrawsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, err)
		return
	}

	env := raffle.Env{
		Sender:  query.Caller,
		Time:    time.Unix(query.Time, 0).UTC(),
		Height:  query.Height,
		TxIndex: query.TxIndex,
	}
	hits, err := h.engine.SimulateDraws(c.Request.Context(), c.Param("id"), env, query.Count)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"hits": hits})
}
