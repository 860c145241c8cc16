package card

import (
	"math/rand"
	"strconv"
)

// Suit 定义花色
type Suit int

// Rank 定义点数
type Rank int

const (
	Hearts   Suit = iota // 红心
	Diamonds             // 方块
	Clubs                // 梅花
	Spades               // 黑桃
)

const (
	Seven Rank = iota
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Card 定义一张牌，不可变值类型
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// suitSymbols 花色符号映射表
var suitSymbols = map[Suit]string{
	Hearts:   "♥",
	Diamonds: "♦",
	Clubs:    "♣",
	Spades:   "♠",
}

func (s Suit) String() string {
	if symbol, ok := suitSymbols[s]; ok {
		return symbol
	}
	return strconv.Itoa(int(s))
}

// rankNames 牌面值字符串映射表
var rankNames = map[Rank]string{
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Ace:   "A",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return strconv.Itoa(int(r))
}

func (c Card) String() string {
	return c.Suit.String() + c.Rank.String()
}

// rankValues 计分点数表，整副 32 张共 120 分
var rankValues = map[Rank]int{
	Seven: 0,
	Eight: 0,
	Nine:  0,
	Ten:   10,
	Jack:  2,
	Queen: 3,
	King:  4,
	Ace:   11,
}

// Value 返回该点数的计分分值
func (r Rank) Value() int {
	return rankValues[r]
}

// jackStrength 是 J 的墩力哨兵值。
// J 在任何花色都是最大的主牌，因此不进入普通排序表，
// 直接给一个远超普通牌的数值，数值比较时必然获胜。
const jackStrength = 100

// normalRankOrder 非主花色的墩力排序：7 < 8 < 9 < Q < K < 10 < A
// 注意 J 不在此表中，J 的强度必须先走 jackStrength 分支，永远不查此表。
var normalRankOrder = map[Rank]int{
	Seven: 0,
	Eight: 1,
	Nine:  2,
	Queen: 3,
	King:  4,
	Ten:   5,
	Ace:   6,
}

// NormalOrder 返回非主牌的墩力强度，J 恒为哨兵最大值
func (r Rank) NormalOrder() int {
	if r == Jack {
		return jackStrength
	}
	return normalRankOrder[r]
}

// jackSuitOrder 多张 J 之间的强弱顺序：草花 > 黑桃 > 红心 > 方块
var jackSuitOrder = map[Suit]int{
	Clubs:    3,
	Spades:   2,
	Hearts:   1,
	Diamonds: 0,
}

// IsTrump 判断一张牌是否属于主"色"：
// 花色等于主花色，或点数是 J（J 在任何花色都算主牌）
func (c Card) IsTrump(trump Suit) bool {
	return c.Suit == trump || c.Rank == Jack
}

// TrumpOrder 返回主牌之间的墩力强度。
// J 永远大于非 J 主牌，多张 J 之间按花色顺序分出大小。
func (c Card) TrumpOrder() int {
	if c.Rank == Jack {
		return jackStrength + jackSuitOrder[c.Suit]
	}
	return normalRankOrder[c.Rank]
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 创建一副 32 张的 Skat 牌（4 花色 × 8 点数）
func NewDeck() Deck {
	deck := make(Deck, 0, 32)
	for s := Hearts; s <= Spades; s++ {
		for r := Seven; r <= Ace; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}

// Shuffle 均匀随机洗牌
func (d Deck) Shuffle() {
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}

// PointSum 累加一组牌的计分分值
func PointSum(cards []Card) int {
	sum := 0
	for _, c := range cards {
		sum += c.Rank.Value()
	}
	return sum
}
