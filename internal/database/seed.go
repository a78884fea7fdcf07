package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"gemimarket/internal/models"
)

var seedProducts = []models.Product{
	{
		ID:          1,
		Name:        "더 미라지 크로니클: 얼티밋 에디션",
		Slogan:      "당신이 기다려온 '차세대' 대서사시. 현실을 잊게 할 압도적인 몰입감을 경험하세요.",
		Description: "광활한 판타지 세계에서 펼쳐지는 장대한 스토리. 수백 시간의 콘텐츠와 숨막히는 비주얼이 당신을 기다립니다.",
		Price:       79000,
		ImageURL:    "/assets/game-mirage.png",
		Category:    "RPG",
	},
	{
		ID:          2,
		Name:        "포근한 농장의 하루: 힐링 시뮬레이터",
		Slogan:      "복잡한 일상에서 잠시 로그아웃! 흙 내음 가득한 나만의 작은 행복을 가꿔보세요.",
		Description: "귀여운 동물들과 함께하는 평화로운 농장 생활. 스트레스 없이 마음을 편안하게 해주는 힐링 게임입니다.",
		Price:       24000,
		ImageURL:    "/assets/game-farm.png",
		Category:    "Simulation",
	},
	{
		ID:          3,
		Name:        "다크니스 던전 3 (리마스터)",
		Slogan:      "전설이 돌아왔다. 그때의 심장은 그대로, 그래픽은 더 선명하게! 명작의 무게를 다시 느껴보세요.",
		Description: "클래식 던전 크롤러의 귀환. 현대적인 그래픽과 개선된 전투 시스템으로 재탄생했습니다.",
		Price:       35000,
		ImageURL:    "/assets/game-dungeon.png",
		Category:    "Classic",
	},
	{
		ID:          4,
		Name:        "갤럭시 워로드: 팀 배틀 패키지",
		Slogan:      "솔로는 없다! 친구와 함께 우주를 정복하라. 치열한 전략과 팀워크로 승리의 쾌감을 맛보세요.",
		Description: "대규모 우주 전투를 경험하세요. 함대를 지휘하고 동맹을 맺어 은하계의 패권을 차지하세요.",
		Price:       45000,
		ImageURL:    "/assets/game-galaxy.png",
		Category:    "Strategy",
	},
	{
		ID:          5,
		Name:        "템플 오브 이그드라실: 3차원 퍼즐",
		Slogan:      "당신의 논리를 시험할 고대 신전. 세상을 잇는 차원의 문을 여는 짜릿한 지적 쾌감을 경험하세요.",
		Description: "북유럽 신화를 배경으로 한 몰입형 퍼즐 게임. 아름다운 비주얼과 도전적인 퍼즐이 기다립니다.",
		Price:       18000,
		ImageURL:    "/assets/game-temple.png",
		Category:    "Puzzle",
	},
}

// SeedProducts inserts the launch catalog when the products collection
// is empty. Existing catalogs are left untouched.
func SeedProducts(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := db.Collection("products").CountDocuments(ctx, bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(seedProducts))
	for _, p := range seedProducts {
		docs = append(docs, p)
	}

	if _, err := db.Collection("products").InsertMany(ctx, docs); err != nil {
		log.Println("SeedProducts: insert error:", err)
		return err
	}

	log.Printf("SeedProducts: seeded %d products", len(seedProducts))
	return nil
}
