package auth

import "shopfront/src/helpers"

type UserFactory interface {
	NewUserStruct(userName string, password string) *NewUser
}

type UserFactoryImpl struct{}

func NewUserFactory() UserFactory {
	return &UserFactoryImpl{}
}

func (f *UserFactoryImpl) NewUserStruct(userName string, password string) *NewUser {
	return &NewUser{
		ID:       helpers.GenerateUUID(),
		Username: userName,
		Password: password,
	}
}
