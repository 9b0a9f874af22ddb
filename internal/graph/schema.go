package graph

// Schema is the GraphQL schema served at /graphql.
const Schema = `
schema {
  query: Query
  mutation: Mutation
  subscription: Subscription
}

type Author {
  id: ID!
  name: String!
  born: Int
  bookCount: Int!
}

type Book {
  id: ID!
  title: String!
  published: Int!
  author: Author!
  genres: [String!]!
}

type User {
  id: ID!
  username: String!
  favoriteGenre: String!
}

type Token {
  value: String!
  user: User!
}

input AuthorInput {
  name: String!
  born: Int
}

type Query {
  bookCount: Int!
  authorCount: Int!
  allBooks(author: String, genre: String): [Book!]!
  allAuthors: [Author!]!
  allGenres: [String!]!
  me: User
}

type Mutation {
  addBook(
    title: String!
    author: AuthorInput!
    published: Int!
    genres: [String!]!
  ): Book

  editAuthor(name: String!, setBornTo: Int): Author

  createUser(username: String!, favoriteGenre: String!): User

  login(username: String!, password: String!): Token
}

type Subscription {
  bookAdded: Book!
}
`
