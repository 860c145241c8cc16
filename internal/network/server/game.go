package server

import (
	"context"
	"fmt"
	"log"

	"github.com/palemoky/skat-server/internal/game/card"
	"github.com/palemoky/skat-server/internal/logger"
	"github.com/palemoky/skat-server/internal/network/protocol"
)

const (
	handSize  = 10 // 每人手牌数
	skatSize  = 2  // 底牌数
	soloScore = 60 // 单打方超过此分数才算赢
)

// Game 进行中的一局牌。
// 引擎跑在自己的协程里，按回合顺序向座位索要消息；
// 座位用入座顺序编号，与连接 ID 无关。
type Game struct {
	id     uint32 // 与连接 ID 同一个计数器，全局单调
	lobby  *Lobby
	peers  [seatCount]Peer
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGame 开一局牌并立即启动引擎协程
func NewGame(lobby *Lobby, peers [seatCount]Peer) *Game {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		id:     lobby.NextID(),
		lobby:  lobby,
		peers:  peers,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go g.run(ctx)
	return g
}

// ID 返回对局编号
func (g *Game) ID() uint32 { return g.id }

// HasPlayer 判断玩家是否在本局
func (g *Game) HasPlayer(id uint32) bool {
	for _, p := range g.peers {
		if p.ID() == id {
			return true
		}
	}
	return false
}

// Close 收掉本局：取消引擎协程并等它退出，返回全部座位。
// 对局结束后调用也安全。
func (g *Game) Close() [seatCount]Peer {
	g.cancel()
	<-g.done
	return g.peers
}

// run 驱动一整局，结束后把本局交还给大厅。
// done 必须先关，大厅收局时会持着命令循环等它。
func (g *Game) run(ctx context.Context) {
	err := g.safePlayRound(ctx)
	close(g.done)

	if ctx.Err() != nil {
		// 大厅正在收掉本局，收尾由大厅完成
		return
	}
	if err != nil {
		log.Printf("⚠️ 对局 %d 异常结束: %v", g.id, err)
	}
	g.lobby.gameOver(g)
}

// safePlayRound 给引擎协程兜底：引擎 panic 不能拖垮进程，
// 也不能让 Close 在 done 上等死
func (g *Game) safePlayRound(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			err = fmt.Errorf("对局 %d panic: %v", g.id, r)
		}
	}()
	return g.playRound(ctx)
}

// playRound 跑完发牌、叫分、换底、报主、十墩、算分的完整流程
func (g *Game) playRound(ctx context.Context) error {
	deck := card.NewDeck()
	deck.Shuffle()

	// 发牌：每人 10 张，剩 2 张压底
	for seat := 0; seat < seatCount; seat++ {
		for _, c := range deck[seat*handSize : (seat+1)*handSize] {
			g.peers[seat].Deliver(protocol.NewMessage(protocol.MsgDrawCard, protocol.DrawCardPayload{Card: c}))
		}
	}
	skat := deck[seatCount*handSize:]

	soloSeat, err := g.runBidding(ctx)
	if err != nil {
		return err
	}
	if soloSeat < 0 {
		// 没人叫，流局
		log.Printf("🃏 所有人过牌，本局流局")
		return nil
	}

	// 公布角色
	for seat, p := range g.peers {
		if seat == soloSeat {
			p.Deliver(protocol.NewMessage(protocol.MsgPlaySolo, nil))
		} else {
			p.Deliver(protocol.NewMessage(protocol.MsgPlayDuo, nil))
		}
	}

	// 换底：底牌发给单打方，再收回两张压进它的得分堆
	solo := g.peers[soloSeat]
	for _, c := range skat {
		solo.Deliver(protocol.NewMessage(protocol.MsgDrawCard, protocol.DrawCardPayload{Card: c}))
	}
	soloPoints := 0
	for i := 0; i < skatSize; i++ {
		payload, err := ExpectPayload[protocol.PlayCardPayload](ctx, solo, protocol.MsgPlayCard)
		if err != nil {
			return err
		}
		soloPoints += payload.Card.Rank.Value()
	}

	// 单打方报主，原样广播
	trumpPayload, err := ExpectPayload[protocol.TrumpPayload](ctx, solo, protocol.MsgTrump)
	if err != nil {
		return err
	}
	trump := trumpPayload.Suit
	g.broadcast(protocol.NewMessage(protocol.MsgTrump, trumpPayload))

	// 十墩：上一墩的赢家先出，第一墩 0 号位先出
	duoPoints := 0
	leader := 0
	for trick := 0; trick < handSize; trick++ {
		winner, points, err := g.playTrick(ctx, leader, trump)
		if err != nil {
			return err
		}
		if winner == soloSeat {
			soloPoints += points
		} else {
			duoPoints += points
		}
		leader = winner
	}

	g.announceResult(soloSeat, soloPoints, duoPoints)
	return nil
}

// runBidding 按 1、2、0 的次序叫分。每个座位可以连续加价，
// 报 0 表示过；有效叫分即时广播，最高价得单打。
// 没人叫时返回 -1。
func (g *Game) runBidding(ctx context.Context) (int, error) {
	// 座次职责通报
	g.peers[0].Deliver(protocol.NewMessage(protocol.MsgHear, nil))
	g.peers[1].Deliver(protocol.NewMessage(protocol.MsgSay, nil))
	g.peers[2].Deliver(protocol.NewMessage(protocol.MsgSayFurther, nil))

	highest := int32(0)
	soloSeat := -1
	for _, seat := range [seatCount]int{1, 2, 0} {
		for {
			payload, err := ExpectPayload[protocol.BidPayload](ctx, g.peers[seat], protocol.MsgBid)
			if err != nil {
				return 0, err
			}
			if payload.Value == 0 {
				break
			}
			// 新的有效叫分直接顶掉当前叫分和叫主人
			highest = payload.Value
			soloSeat = seat
			g.broadcast(protocol.NewMessage(protocol.MsgNewBid, protocol.NewBidPayload{Value: highest}))
		}
	}
	return soloSeat, nil
}

// playTrick 打一墩，依次向每个座位要一张牌，
// 返回赢家座位和这一墩的分值
func (g *Game) playTrick(ctx context.Context, leader int, trump card.Suit) (int, int, error) {
	var seats [seatCount]int
	var cards [seatCount]card.Card

	for i := 0; i < seatCount; i++ {
		seat := (leader + i) % seatCount
		p := g.peers[seat]

		p.Deliver(protocol.NewMessage(protocol.MsgYourTurn, nil))
		payload, err := ExpectPayload[protocol.PlayCardPayload](ctx, p, protocol.MsgPlayCard)
		if err != nil {
			return 0, 0, err
		}
		seats[i] = seat
		cards[i] = payload.Card
	}

	winner := trickWinner(cards, trump)
	return seats[winner], card.PointSum(cards[:]), nil
}

// trickWinner 判定一墩的赢家（按出牌顺序的下标）。
// 有主牌进墩就只在主牌里比主牌强度，
// 否则只在跟了首张花色的牌里比普通强度。
func trickWinner(cards [seatCount]card.Card, trump card.Suit) int {
	trumped := false
	for _, c := range cards {
		if c.IsTrump(trump) {
			trumped = true
			break
		}
	}

	color := cards[0].Suit
	winner, bestOrder := 0, -1
	for i, c := range cards {
		var order int
		switch {
		case trumped && c.IsTrump(trump):
			order = c.TrumpOrder()
		case !trumped && c.Suit == color:
			order = c.Rank.NormalOrder()
		default:
			continue
		}
		if order > bestOrder {
			winner, bestOrder = i, order
		}
	}
	return winner
}

// announceResult 结算并广播本局结果。
// 单打方必须拿到 61 分及以上才算赢，正好 60/60 是平局。
func (g *Game) announceResult(soloSeat, soloPoints, duoPoints int) {
	result := protocol.GameWonPayload{
		WinnerPoints: uint32(soloPoints),
		LoserPoints:  uint32(duoPoints),
	}

	switch {
	case soloPoints > soloScore:
		result.HasWinner = true
		result.WinnerID = g.peers[soloSeat].ID()
	case soloPoints < soloScore:
		result.HasWinner = true
		// 防守方赢时记在单打方下家名下
		result.WinnerID = g.peers[(soloSeat+1)%seatCount].ID()
		result.WinnerPoints = uint32(duoPoints)
		result.LoserPoints = uint32(soloPoints)
	}

	log.Printf("🏁 对局结束: 单打 %d 分，防守 %d 分", soloPoints, duoPoints)
	g.broadcast(protocol.NewMessage(protocol.MsgGameWon, result))
}

// broadcast 把同一条消息投递给全部座位
func (g *Game) broadcast(msg *protocol.Message) {
	for _, p := range g.peers {
		p.Deliver(msg)
	}
}
