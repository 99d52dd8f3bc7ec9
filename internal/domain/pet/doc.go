// Package pet содержит доменную модель питомца Studygotchi.
//
// Это ядро бизнес-логики системы "Studygotchi Hub". Пакет определяет:
//
//   - Сущности (Entities): Pet
//   - Value Objects: Experience, Level, Intelligence, Points, Nutrition,
//     FoodInventory, CharacterSprite, RoomType, MBTIType, Food, Stage
//   - Доменные события (Events): Created, Died, Revived, Fed, Played, LevelUp
//   - Интерфейсы: Repository, SessionTracker, Cache
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - определяет интерфейсы, которые реализуются в infrastructure
//  3. Rich Domain Model - бизнес-логика инкапсулирована в сущностях
//
// # Модель времени
//
// Ресурсы питомца не "тикают" в фоне. Хранятся чекпоинты - значение плюс
// метка времени последнего ухода, а живое значение выводится чистой
// функцией от прошедшего времени:
//
//	hunger := pet.CurrentHunger(sessionStart, time.Now())
//	vitals := pet.CurrentVitals(sessionStart, time.Now())
//
// База распада - старт активной сессии, если он известен: пока приложение
// закрыто, питомец ничего не теряет. Без старта сессии базой служит сам
// чекпоинт (полный распад по настенным часам).
//
// Скука устроена иначе: хранимой величины нет вообще, значение целиком
// реконструируется из времени с последней игры. Снижение скуки кодируется
// откатом чекпоинта назад (см. Pet.RecordPlay).
//
// # Смерть
//
// Смерть вычисляется при каждом обсчёте состояния:
//
//	dead, cause := pet.EvaluateDeath(sessionStart, time.Now())
//	if dead {
//	    pet.ConfirmDeath(time.Now())
//	}
//
// Флаг смерти липкий: однажды зафиксированный, он держится до явного
// воскрешения, даже если живые значения ресурсов выправились.
//
// # Пример использования
//
// Создание и кормление питомца:
//
//	p, err := NewPet(NewPetParams{
//	    ID:              uuid.New().String(),
//	    UserID:          userID,
//	    Name:            "토토",
//	    CharacterSprite: PickRandomCharacter(),
//	    RoomType:        PickRandomRoom(),
//	    MBTI:            PickRandomMBTI(),
//	})
//	if err != nil {
//	    return err
//	}
//
//	food, _ := FoodByID("rice")
//	now := time.Now()
//	err = p.Feed(food, p.CurrentHunger(sessionStart, now), p.CurrentNutrition(sessionStart, now), now)
package pet
