package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cashflow/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// categorySeed 分类初始数据，Children 为空时即叶子
type categorySeed struct {
	Name        string
	Description string
	Children    []string
}

var (
	seedStatuses = []ReferenceInput{
		{Name: "经营", Description: "经营相关收支"},
		{Name: "个人", Description: "个人收支"},
		{Name: "税务", Description: "税费与申报"},
	}
	seedTypes = []ReferenceInput{
		{Name: "收入", Description: "资金流入"},
		{Name: "支出", Description: "资金流出"},
	}
	seedIncome = []categorySeed{
		{Name: "工资"},
		{Name: "自由职业"},
		{Name: "投资"},
		{Name: "销售"},
	}
	seedExpense = []categorySeed{
		{Name: "基础设施", Description: "服务器与网络", Children: []string{"VPS", "Proxy", "域名"}},
		{Name: "市场推广", Description: "广告投放", Children: []string{"Farpost", "Avito", "Google Ads", "Яндекс.Директ"}},
		{Name: "餐饮"},
		{Name: "交通"},
		{Name: "娱乐"},
	}
)

// Seeder 写入初始基础数据和示例流水，可重复执行
type Seeder struct {
	db   *gorm.DB
	refs *ReferenceService
	cats *CategoryService
	txs  *TransactionService
	log  *zap.Logger
}

func NewSeeder(db *gorm.DB, refs *ReferenceService, cats *CategoryService, txs *TransactionService, log *zap.Logger) *Seeder {
	return &Seeder{db: db, refs: refs, cats: cats, txs: txs, log: log}
}

// LoadInitialData 创建默认状态、流水类型和分类树，已存在的跳过
func (s *Seeder) LoadInitialData(ctx context.Context) error {
	for _, in := range seedStatuses {
		if _, err := s.status(ctx, in); err != nil {
			return err
		}
	}
	types := make(map[string]uint, len(seedTypes))
	for _, in := range seedTypes {
		t, err := s.transactionType(ctx, in)
		if err != nil {
			return err
		}
		types[t.Name] = t.ID
	}
	if err := s.categories(ctx, types["收入"], seedIncome); err != nil {
		return err
	}
	if err := s.categories(ctx, types["支出"], seedExpense); err != nil {
		return err
	}
	s.log.Info("初始数据已就绪")
	return nil
}

func (s *Seeder) status(ctx context.Context, in ReferenceInput) (*models.Status, error) {
	var rec models.Status
	err := s.db.WithContext(ctx).Where("name = ?", in.Name).First(&rec).Error
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.refs.CreateStatus(ctx, in)
}

func (s *Seeder) transactionType(ctx context.Context, in ReferenceInput) (*models.TransactionType, error) {
	var rec models.TransactionType
	err := s.db.WithContext(ctx).Where("name = ?", in.Name).First(&rec).Error
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.refs.CreateTransactionType(ctx, in)
}

func (s *Seeder) categories(ctx context.Context, typeID uint, seeds []categorySeed) error {
	for _, seed := range seeds {
		parent, err := s.category(ctx, CategoryInput{Name: seed.Name, Description: seed.Description, TransactionTypeID: typeID})
		if err != nil {
			return err
		}
		for _, child := range seed.Children {
			pid := parent.ID
			if _, err := s.category(ctx, CategoryInput{Name: child, TransactionTypeID: typeID, ParentID: &pid}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) category(ctx context.Context, in CategoryInput) (*models.Category, error) {
	path := []string{in.Name}
	if in.ParentID != nil {
		var parent models.Category
		if err := s.db.WithContext(ctx).First(&parent, *in.ParentID).Error; err != nil {
			return nil, err
		}
		path = []string{parent.Name, in.Name}
	}
	cat, err := s.cats.FindByPath(ctx, in.TransactionTypeID, path...)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.cats.Create(ctx, in)
}

type sampleTransaction struct {
	DaysAgo  int
	Status   string
	Type     string
	Category []string
	Amount   string
	Comment  string
}

var samples = []sampleTransaction{
	{1, "经营", "收入", []string{"工资"}, "50000.00", "一月工资"},
	{3, "经营", "收入", []string{"自由职业"}, "15000.00", "网站开发项目"},
	{5, "个人", "收入", []string{"自由职业"}, "8000.00", "SEO 咨询"},
	{2, "经营", "支出", []string{"基础设施", "VPS"}, "2500.00", "VPS 月费"},
	{4, "经营", "支出", []string{"基础设施", "Proxy"}, "1200.00", "采集用代理"},
	{6, "经营", "支出", []string{"市场推广", "Farpost"}, "5000.00", "Farpost 广告"},
	{7, "经营", "支出", []string{"市场推广", "Avito"}, "3000.00", "Avito 广告"},
	{1, "个人", "支出", []string{"餐饮"}, "2500.00", "一周食材"},
	{2, "个人", "支出", []string{"交通"}, "800.00", "通勤"},
	{8, "个人", "支出", []string{"餐饮"}, "1800.00", "餐厅午餐"},
}

// CreateSampleTransactions 库中没有任何流水时写入示例流水
func (s *Seeder) CreateSampleTransactions(ctx context.Context) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("已有流水，跳过示例数据", zap.Int64("count", n))
		return nil
	}

	now := time.Now()
	for _, sample := range samples {
		var status models.Status
		if err := s.db.WithContext(ctx).Where("name = ?", sample.Status).First(&status).Error; err != nil {
			return fmt.Errorf("示例状态 %s: %w", sample.Status, err)
		}
		var tt models.TransactionType
		if err := s.db.WithContext(ctx).Where("name = ?", sample.Type).First(&tt).Error; err != nil {
			return fmt.Errorf("示例流水类型 %s: %w", sample.Type, err)
		}
		cat, err := s.cats.FindByPath(ctx, tt.ID, sample.Category...)
		if err != nil {
			return fmt.Errorf("示例分类 %v: %w", sample.Category, err)
		}
		date := now.AddDate(0, 0, -sample.DaysAgo)
		if _, err := s.txs.Create(ctx, TransactionInput{
			Date:              &date,
			StatusID:          status.ID,
			TransactionTypeID: tt.ID,
			CategoryID:        cat.ID,
			Amount:            decimal.RequireFromString(sample.Amount),
			Comment:           sample.Comment,
		}); err != nil {
			return err
		}
	}
	s.log.Info("示例流水已创建", zap.Int("count", len(samples)))
	return nil
}
