package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"

	"github.com/cafe-ops-dev/shift-planner/backend/internal/domain"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RoleStaff,
	domain.RoleStaff,
	domain.RoleStaff, // 多放几个普通员工，让随机数据更接近真实门店
	domain.RoleEvaluator,
	domain.RoleSubManager,
	domain.RoleManager,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomWorker(password string, emailDomainName string) (*domain.Worker, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	skillLevel := float64(rand.Intn(41)+10) / 10 // 1.0 ~ 5.0

	worker := &domain.Worker{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
		SkillLevel:   &skillLevel,
		IsActive:     true,
	}

	return worker, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

// 随机生成某个员工在未来若干天内的偏好时段
func GenerateRandomPreferences(workerID int64, days int) []*domain.PreferenceEntry {
	prefs := make([]*domain.PreferenceEntry, 0)
	today := time.Now().Truncate(24 * time.Hour)

	for day := 1; day <= days; day++ {
		// 大约三分之二的日子会提交偏好
		if rand.Intn(3) == 0 {
			continue
		}

		startHour := rand.Intn(12) + 8 // 8~19 点开始
		duration := rand.Intn(4) + 3   // 3~6 小时
		endHour := startHour + duration
		if endHour > 23 {
			endHour = 23
		}

		prefs = append(prefs, &domain.PreferenceEntry{
			WorkerID:  workerID,
			Date:      today.AddDate(0, 0, day),
			StartTime: fmt.Sprintf("%02d:00", startHour),
			EndTime:   fmt.Sprintf("%02d:00", endHour),
			Priority:  int32(rand.Intn(3) + 1),
			Status:    domain.PreferencePending,
		})
	}

	return prefs
}
