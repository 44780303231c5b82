package utils

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/daftarhq/daftar_backend/config"
)

var mutex sync.Mutex

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

// get type name of struct
func GetType(i interface{}) string {
	return reflect.TypeOf(i).Name()
}

/* Redis */

// master data that changes rarely but gets re-read on every document
func typeHasExpiration(typeName string) bool {
	expirableTypes := map[string]bool{
		"Account":  true,
		"Customer": true,
		"Supplier": true,
		"Product":  true,
	}
	return expirableTypes[typeName]
}

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	typeName := GetTypeName[T]()
	key := typeName + ":" + fmt.Sprint(id)

	var duration time.Duration
	if typeHasExpiration(typeName) {
		duration = GetCacheLifespan()
	}
	return config.SetRedisObject(key, &obj, duration)
}

// store object list
func StoreRedisList[T any](obj any) error {
	typeName := GetTypeName[T]()
	key := typeName + "List"

	var duration time.Duration
	if typeHasExpiration(typeName) {
		duration = GetCacheLifespan()
	}
	return config.SetRedisObject(key, &obj, duration)
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// retrieve a cached list
func RetrieveRedisList[T any]() ([]*T, error) {
	key := GetTypeName[T]() + "List"

	var result []*T
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList
func RemoveRedisList[T any]() error {
	var key string = GetTypeName[T]() + "List"
	return config.RemoveRedisKey(key)
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

// GetSequence hands out the next per-day sequence number for a numbered
// document type. The counter lives in redis; when redis is cold (or not
// configured) the counter reseeds from max(sequence_no) in the database.
// The loop re-checks uniqueness against the db so a stale counter can
// never hand out a number twice.
func GetSequence[T any](ctx context.Context, dateKey string) (int64, error) {
	var model T
	mutex.Lock()
	defer mutex.Unlock()
	cacheKey := strings.ToLower(GetTypeName[T]()) + "_seq:" + dateKey
	var seqNo int64
	var err error
	db := config.GetDB()

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, get from db
		if seqNo <= 1 {
			// get max seq no from db for that day
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Where("date_key = ?", dateKey).
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			// in case db has no records for the day
			if dbSeq == nil {
				seqNo = 0
			} else {
				seqNo = *dbSeq
			}
			seqNo++
			if err := config.SetRedisObject(cacheKey, &seqNo, 24*time.Hour); err != nil {
				return 0, err
			}
		}
		// check if sequence number exists in db
		count, err := ResourceCountWhere[T](ctx, "date_key = ? AND sequence_no = ?", dateKey, seqNo)
		if err != nil {
			return 0, err
		}
		if count == 0 {
			break
		}
	}
	return seqNo, nil
}
